// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "github.com/pdiddy/medical-agent/pkg/types"

// DisclaimerText is attached to every response.
const DisclaimerText = "This information is for educational purposes only and is not medical advice. " +
	"Always consult a qualified healthcare provider about symptoms, diagnosis, or treatment, " +
	"and call your local emergency number if you think you may have a medical emergency."

// FixedDisclaimer attaches DisclaimerText.
type FixedDisclaimer struct{}

// Attach sets the disclaimer field. Calling it twice yields the same response.
func (FixedDisclaimer) Attach(resp types.Response) types.Response {
	resp.Disclaimer = DisclaimerText
	return resp
}
