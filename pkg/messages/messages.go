// Package messages holds the user-facing strings sent back to discord.
package messages

const (
	ErrUserErrorProcessing = "Something went wrong, please try again later."
	ErrNoPermission        = "You do not have permission to do that."
	ErrGuildOnly           = "This command can only be used in a server."
)

// Ticket lifecycle.
const (
	TicketsNotConfigured     = "The ticket system is not configured correctly. Please contact an administrator."
	TicketAlreadyOpen        = "You already have an open ticket of this type."
	TicketAlreadyOpenFmt     = "You already have an open ticket: %s"
	TicketRateLimitedFmt     = "You must wait %d seconds before creating another ticket."
	TicketStaleComponent     = "This ticket option no longer exists."
	TicketNotATicket         = "This command only works in ticket channels."
	TicketNoPermissionClose  = "You do not have permission to close this ticket."
	TicketMissingPermission  = "I do not have permission to create the ticket channel."
	TicketCreateFailed       = "An unexpected error occurred while creating the ticket."
	TicketCloseFailed        = "An error occurred while closing the ticket."
	TicketAlreadyClosed      = "This ticket is already closed."
	TicketCreatedFmt         = "Ticket created: %s"
	TicketClosing            = "Closing ticket..."
	TicketWelcomeFmt         = "Hello %s!"
	TicketTopicFmt           = "Ticket from %s | Type: %s"
	TicketCloseButtonLabel   = "🔒 Close ticket"
	TicketPanelTitle         = "🎫 Ticket system"
	TicketMenuPlaceholder    = "Choose a ticket category..."
	TicketMenuOptionHint     = "Click to create a ticket"
	TicketTranscriptTitle    = "Ticket transcript"
	TicketTranscriptClosedBy = "Closed by %s"
	TicketTranscriptReason   = "Reason"
	TicketNoOpenTickets      = "You have no open tickets."
)

// Ticket configuration.
const (
	TicketSetupPrompt        = "Mention the moderator role that should see every ticket (for example @Moderators). You have %d seconds."
	TicketSetupTimeout       = "Setup timed out. Run `/ticket setup` again when you are ready."
	TicketSetupNoRole        = "That message did not mention a role. Run `/ticket setup` again."
	TicketSetupInProgress    = "A setup is already waiting for your reply in this channel."
	TicketSetupDoneFmt       = "Setup complete. Moderator role set to %s. Add buttons with `/ticket add_button`, then post the panel with `/ticket panel`."
	TicketModRoleSetFmt      = "Moderator role set to %s."
	TicketAdminRoleAddedFmt  = "Added %s as an admin role."
	TicketAdminRoleExistsFmt = "%s is already an admin role."
	TicketAdminRoleRemoveFmt = "Removed %s from the admin roles."
	TicketAdminRoleMissFmt   = "%s is not an admin role."
	TicketTranscriptSetFmt   = "Transcripts will be sent to %s."
	TicketButtonAddedFmt     = "Added the button **%s**."
	TicketButtonRemovedFmt   = "Removed the button **%s**."
	TicketButtonsCleared     = "All buttons have been removed."
	TicketButtonDuplicate    = "A button with this label already exists."
	TicketButtonsFull        = "The maximum of 25 buttons has been reached."
	TicketButtonNotFound     = "No button with that label exists."
	TicketButtonEmpty        = "The button label cannot be empty."
	TicketPanelNeedsModRole  = "Set a moderator role first with `/ticket mod_role`."
	TicketPanelNeedsButton   = "Add at least one button first with `/ticket add_button`."
	TicketPanelPosted        = "Ticket panel posted."
	TicketUIModeFmt          = "The panel will now use **%s**."
	TicketUIModeInvalid      = "Use `menu`, `dropdown` or `button`."
	TicketSettingsTitle      = "⚙️ Ticket settings"
	TicketNotSet             = "Not set"
	TicketNone               = "None"
	TicketOpenTicketsTitle   = "Your open tickets"
	TicketHelpTitle          = "Ticket commands"
)

// TicketHelp lists the /ticket subcommands.
const TicketHelp = "`/ticket setup` guided setup of the moderator role\n" +
	"`/ticket mod_role` set the role that sees every ticket\n" +
	"`/ticket admin_role` / `remove_admin_role` manage who can configure tickets\n" +
	"`/ticket transcript` set the channel that receives transcripts\n" +
	"`/ticket add_button` / `remove_button` / `clear_buttons` manage ticket types\n" +
	"`/ticket panel` post the ticket panel in this channel\n" +
	"`/ticket ui` switch the panel between buttons and a menu\n" +
	"`/ticket settings` show the current configuration\n" +
	"`/ticket close` close the ticket in this channel\n" +
	"`/ticket mine` list your open tickets"
