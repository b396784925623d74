package postgres

import (
	stdjson "encoding/json"
	"fmt"
	"strconv"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.Config{
	EscapeHTML: false,
	UseNumber:  true,
}.Froze()

// encodeButtons stores buttons as an array of [label, welcome message] pairs.
func encodeButtons(buttons []entities.TicketButton) (string, error) {
	pairs := make([][2]string, 0, len(buttons))
	for _, b := range buttons {
		pairs = append(pairs, [2]string{b.Label, b.WelcomeMessage})
	}

	b, err := json.Marshal(pairs)
	if err != nil {
		return "", fmt.Errorf("error encoding buttons: %w", err)
	}
	return string(b), nil
}

func decodeButtons(raw []byte) ([]entities.TicketButton, error) {
	buttons := make([]entities.TicketButton, 0)
	if len(raw) == 0 {
		return buttons, nil
	}

	var pairs [][]string
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("error decoding buttons: %w", err)
	}

	for _, p := range pairs {
		switch len(p) {
		case 0:
			continue
		case 1:
			buttons = append(buttons, entities.TicketButton{Label: p[0]})
		default:
			buttons = append(buttons, entities.TicketButton{Label: p[0], WelcomeMessage: p[1]})
		}
	}
	return buttons, nil
}

func encodeRoleIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}

	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("error encoding role ids: %w", err)
	}
	return string(b), nil
}

// decodeRoleIDs accepts both string IDs and the numeric IDs written by older deployments.
func decodeRoleIDs(raw []byte) ([]string, error) {
	ids := make([]string, 0)
	if len(raw) == 0 {
		return ids, nil
	}

	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("error decoding role ids: %w", err)
	}

	for _, v := range values {
		switch id := v.(type) {
		case string:
			ids = append(ids, id)
		case stdjson.Number:
			ids = append(ids, id.String())
		case float64:
			ids = append(ids, strconv.FormatFloat(id, 'f', -1, 64))
		default:
			return nil, fmt.Errorf("unexpected role id %v of type %T", v, v)
		}
	}
	return ids, nil
}
