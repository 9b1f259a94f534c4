package genai

import "fmt"

// FallbackVariations returns two static pre-written variations, used
// whenever the generation gateway errors or its output cannot be parsed
// into two complete variations.
func FallbackVariations(companyName, productName, offerDetails string) []DraftVariation {
	return []DraftVariation{
		{
			Subject: fmt.Sprintf("%s - Limited Time", productName),
			Body: fmt.Sprintf(`Hi there,

Big news! We've just launched %s and it's already creating a buzz.

%s

Here's what makes this special:
- Designed specifically for people like you
- Proven results from our beta testing
- Limited-time exclusive access

Ready to be among the first to experience this?

[Claim Your Spot Now]

Best,
%s Team

P.S. This offer expires soon - don't miss out!`, productName, offerDetails, companyName),
		},
		{
			Subject: fmt.Sprintf("You're invited: %s", productName),
			Body: fmt.Sprintf(`Hello!

We have something exciting to share with you.

After months of development, %s is finally here. The early feedback has been incredible, and we think you'll love what we've created.

%s

What our customers are saying:
"This exceeded all my expectations" - Sarah M.
"Finally, a solution that actually works" - David L.

Want to see what all the excitement is about?

[Discover More]

Warmly,
The %s Team

P.S. Join hundreds of satisfied customers who've already made the switch.`, productName, offerDetails, companyName),
		},
	}
}
