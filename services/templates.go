package services

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/AIStudyPlans/scheduled-backend/types"
)

// campaignStep holds the copy for one position of the feedback drip sequence.
type campaignStep struct {
	Subject string
	Heading string
	Body    string
	CTAText string
}

// campaignSteps maps sequence positions 1-4 to their email copy. Position 0 is
// the welcome email and is never selected here.
var campaignSteps = map[int]campaignStep{
	1: {
		Subject: "How are you finding SchedulEd's features?",
		Heading: "Which features matter most to you?",
		Body:    "You joined the SchedulEd waitlist a little while ago, and we're deep in building. Personalized study plans, spaced-repetition scheduling, progress tracking - which of these would make the biggest difference for you?",
		CTAText: "Tell us about features",
	},
	2: {
		Subject: "What challenges are you facing with studying?",
		Heading: "What gets in the way of your studying?",
		Body:    "Everyone's study routine breaks down somewhere: planning, consistency, motivation, or just too much material. Knowing where yours breaks helps us build the right thing first.",
		CTAText: "Share your challenges",
	},
	3: {
		Subject: "Thoughts on SchedulEd's design and tools?",
		Heading: "Help us shape the design and tools",
		Body:    "We've been iterating on SchedulEd's interface and the tools around it - calendars, reminders, integrations. If you've seen our previews, we'd love to hear what works for you and what doesn't.",
		CTAText: "Give design feedback",
	},
	4: {
		Subject: "Final thoughts before we launch?",
		Heading: "One last question from us",
		Body:    "This is the last email in our feedback series - thank you for sticking with us. If there's anything at all you want us to know before launch, now is the perfect moment.",
		CTAText: "Send final thoughts",
	},
}

const campaignEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Subject}}</title>
    <style>
        body {
            font-family: 'sans-serif';
            background-color: #f7f7f7;
            color: #333333;
            margin: 0;
            padding: 20px;
            text-align: center;
        }
        .container {
            max-width: 600px;
            margin: 20px auto;
            background-color: #ffffff;
            padding: 30px;
            border-radius: 12px;
            box-shadow: 0 4px 8px rgba(0, 0, 0, 0.05);
        }
        h1 {
            color: #4F46E5;
            font-size: 28px;
            margin-bottom: 20px;
        }
        p {
            font-size: 16px;
            line-height: 1.6;
            margin-bottom: 25px;
        }
        .button {
            display: inline-block;
            padding: 12px 24px;
            font-size: 16px;
            font-weight: bold;
            text-decoration: none;
            background-color: #4F46E5;
            color: #ffffff;
            border-radius: 8px;
            transition: background-color 0.3s ease;
        }
        .button:hover {
            background-color: #4338CA;
        }
        .link {
            margin-top: 20px;
            font-size: 14px;
            color: #777777;
            word-break: break-all;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Heading}}</h1>
        <p>Hi {{.Name}}!</p>
        <p>{{.Body}}</p>
        <p>
            <a href="{{.CTAURL}}" class="button">
                {{.CTAText}}
            </a>
        </p>
        <p class="link">
            Or copy this link:<br/>
            {{.CTAURL}}
        </p>
    </div>
</body>
</html>`

const welcomeEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Welcome to SchedulEd!</title>
    <style>
        body {
            font-family: 'sans-serif';
            background-color: #f7f7f7;
            color: #333333;
            margin: 0;
            padding: 20px;
            text-align: center;
        }
        .container {
            max-width: 600px;
            margin: 20px auto;
            background-color: #ffffff;
            padding: 30px;
            border-radius: 12px;
            box-shadow: 0 4px 8px rgba(0, 0, 0, 0.05);
        }
        h1 {
            color: #4F46E5;
            font-size: 28px;
            margin-bottom: 20px;
        }
        p {
            font-size: 16px;
            line-height: 1.6;
            margin-bottom: 25px;
        }
        .button {
            display: inline-block;
            padding: 12px 24px;
            font-size: 16px;
            font-weight: bold;
            text-decoration: none;
            background-color: #4F46E5;
            color: #ffffff;
            border-radius: 8px;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>You're on the list!</h1>
        <p>Hi {{.Name}}!</p>
        <p>Thanks for joining the SchedulEd waitlist. We're building an AI study planner that builds your study schedule around how you actually learn, and you'll be among the first to try it.</p>
        <p>We'll check in occasionally to ask what you'd like to see - your answers directly shape what we build.</p>
        <p>
            <a href="{{.AppURL}}" class="button">
                Visit SchedulEd
            </a>
        </p>
    </div>
</body>
</html>`

// WelcomeEmail renders the waitlist confirmation email for a new signup.
func WelcomeEmail(user *types.WaitlistUser, appURL string) (types.EmailMessage, error) {
	tmpl, err := template.New("welcome").Parse(welcomeEmailTemplate)
	if err != nil {
		return types.EmailMessage{}, fmt.Errorf("failed to parse welcome template: %w", err)
	}

	var html bytes.Buffer
	if err := tmpl.Execute(&html, map[string]any{
		"Name":   user.Name,
		"AppURL": appURL,
	}); err != nil {
		return types.EmailMessage{}, fmt.Errorf("failed to execute welcome template: %w", err)
	}

	text := fmt.Sprintf(
		"Hi %s!\n\nThanks for joining the SchedulEd waitlist. We're building an AI study planner that builds your study schedule around how you actually learn, and you'll be among the first to try it.\n\nWe'll check in occasionally to ask what you'd like to see - your answers directly shape what we build.\n\nVisit us: %s\n",
		user.Name, appURL)

	return types.EmailMessage{
		To:      user.Email,
		Subject: "Welcome to the SchedulEd waitlist!",
		HTML:    html.String(),
		Text:    text,
	}, nil
}

// CampaignEmail renders the drip email for the given sequence position (1-4).
// Any other position is an error; position 0 is the welcome email and the
// terminal position has nothing left to send.
func CampaignEmail(position int, user *types.WaitlistUser, appURL string) (types.EmailMessage, error) {
	step, ok := campaignSteps[position]
	if !ok {
		return types.EmailMessage{}, fmt.Errorf("no campaign template for sequence position %d", position)
	}

	feedbackURL := fmt.Sprintf("%s/feedback?userId=%d&emailId=email%d", appURL, user.ID, position)

	tmpl, err := template.New("campaign").Parse(campaignEmailTemplate)
	if err != nil {
		return types.EmailMessage{}, fmt.Errorf("failed to parse campaign template: %w", err)
	}

	var html bytes.Buffer
	if err := tmpl.Execute(&html, map[string]any{
		"Subject": step.Subject,
		"Heading": step.Heading,
		"Body":    step.Body,
		"CTAText": step.CTAText,
		"CTAURL":  feedbackURL,
		"Name":    user.Name,
	}); err != nil {
		return types.EmailMessage{}, fmt.Errorf("failed to execute campaign template: %w", err)
	}

	text := fmt.Sprintf("Hi %s!\n\n%s\n\n%s: %s\n", user.Name, step.Body, step.CTAText, feedbackURL)

	return types.EmailMessage{
		To:      user.Email,
		Subject: step.Subject,
		HTML:    html.String(),
		Text:    text,
	}, nil
}

// CampaignEmailID returns the email id recorded on feedback submitted from the
// drip email at the given position.
func CampaignEmailID(position int) string {
	return fmt.Sprintf("email%d", position)
}
