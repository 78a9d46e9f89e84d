package mail

import "context"

// Mailer is the outbound notification sink. Delivery failures are returned
// to the caller; whether they surface to the client depends on the flow
// (magic-link requests report them, invitations log and continue).
type Mailer interface {
	SendMagicLink(ctx context.Context, to, loginURL string) error
	SendPasswordSetup(ctx context.Context, to, setupURL string) error
	SendInvitation(ctx context.Context, to, requestTitle, accessURL string) error
}
