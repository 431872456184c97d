package types

// EmailMessage is a fully rendered outbound email.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}
