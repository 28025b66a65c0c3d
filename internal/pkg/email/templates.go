package email

// BaseTemplate is the layout every HTML email is wrapped in
const BaseTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body {
            margin: 0;
            padding: 0;
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background-color: #f4f5f7;
            color: #1f2430;
        }
        .container {
            max-width: 560px;
            margin: 0 auto;
            padding: 40px 20px;
        }
        .card {
            background: #ffffff;
            border-radius: 12px;
            padding: 32px;
            border: 1px solid #e3e5ea;
        }
        h2 {
            font-size: 22px;
            margin: 0 0 16px;
        }
        p {
            color: #4a5060;
            font-size: 16px;
            line-height: 1.6;
            margin: 0 0 16px;
        }
        .info-box {
            background: #eef2ff;
            border-radius: 8px;
            padding: 16px;
            margin: 16px 0;
        }
        .btn {
            display: inline-block;
            background: #4f46e5;
            color: #ffffff !important;
            text-decoration: none;
            padding: 12px 24px;
            border-radius: 8px;
            font-weight: 600;
        }
        .footer {
            text-align: center;
            margin-top: 24px;
            color: #8a90a0;
            font-size: 12px;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="card">
            {{.Content}}
        </div>
        <div class="footer">
            <p>You receive this because you scheduled a quiet block.</p>
        </div>
    </div>
</body>
</html>
`

// ReminderData is the payload for the quiet block reminder templates
type ReminderData struct {
	Name         string
	Title        string
	StartsAt     string
	EndsAt       string
	MinutesUntil int
	DashboardURL string
}

const QuietBlockReminderTemplate = `
<h2>Your quiet block starts soon</h2>
<p>Hi {{.Name}}, <strong>{{.Title}}</strong> begins in about {{.MinutesUntil}} minutes.</p>
<div class="info-box">
    <p><strong>Starts:</strong> {{.StartsAt}}<br><strong>Ends:</strong> {{.EndsAt}}</p>
</div>
<p>Wrap up what you are doing and silence your notifications.</p>
<a href="{{.DashboardURL}}" class="btn">Open dashboard</a>
`

const QuietBlockReminderText = `Hi {{.Name}},

"{{.Title}}" begins in about {{.MinutesUntil}} minutes.

Starts: {{.StartsAt}}
Ends:   {{.EndsAt}}

Dashboard: {{.DashboardURL}}
`
