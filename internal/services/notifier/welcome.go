package notifier

import (
	"fmt"
	"time"

	"github.com/otcpublishing/writing-detector/internal/models"
)

// welcomeEmail формирует HTML и текстовую версии приветственного письма.
func welcomeEmail(user models.User) (htmlBody, textBody string) {
	daysLeft := int(time.Until(user.TrialExpires).Hours() / 24)
	if daysLeft < 0 {
		daysLeft = 0
	}

	htmlBody = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Welcome to AI Writing Detector</title>
</head>
<body>
    <h1>Welcome to AI Writing Detector!</h1>
    <p>Your %d-day free trial is now active and you have unlimited access to all features.</p>
    <h3>What you can do right now:</h3>
    <ul>
        <li><strong>Upload documents</strong> - Analyze TXT, DOC, DOCX, RTF files</li>
        <li><strong>Google Docs integration</strong> - Paste any Google Doc URL for instant analysis</li>
        <li><strong>Advanced AI detection</strong> - 11 different pattern analysis methods</li>
        <li><strong>Detailed reporting</strong> - Get insights into writing characteristics</li>
    </ul>
    <p>Your trial expires in %d days. Upgrade anytime for unlimited access!</p>
    <p>Best regards,<br>The AI Writing Detector Team</p>
</body>
</html>`, daysLeft, daysLeft)

	textBody = fmt.Sprintf(`Welcome to AI Writing Detector!

Your %d-day free trial has started and you have unlimited access to all features.

What you can do:
- Upload documents (TXT, DOC, DOCX, RTF)
- Analyze Google Docs by URL
- Advanced AI pattern detection
- Detailed reporting

Best regards,
The AI Writing Detector Team`, daysLeft)

	return htmlBody, textBody
}
