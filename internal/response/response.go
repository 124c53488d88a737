// Package response builds the JSON payloads returned by the prediction routes.
package response

import (
	"fmt"
	"strings"
)

// Simple is returned to plain JSON clients.
type Simple struct {
	Result string `json:"result"`
}

func NewSimple(label string) Simple {
	return Simple{Result: label}
}

// Envelope is the webhook response shape expected by Google Actions.
type Envelope struct {
	Payload Payload `json:"payload"`
}

type Payload struct {
	Google Google `json:"google"`
}

type Google struct {
	ExpectUserResponse bool         `json:"expectUserResponse"`
	RichResponse       RichResponse `json:"richResponse"`
}

type RichResponse struct {
	Items []Item `json:"items"`
}

// Item holds exactly one of its fields.
type Item struct {
	SimpleResponse *SimpleResponse `json:"simpleResponse,omitempty"`
	BasicCard      *BasicCard      `json:"basicCard,omitempty"`
}

type SimpleResponse struct {
	TextToSpeech string `json:"textToSpeech"`
}

type BasicCard struct {
	Subtitle            string `json:"subtitle"`
	Image               Image  `json:"image"`
	ImageDisplayOptions string `json:"imageDisplayOptions"`
}

type Image struct {
	Width             int    `json:"width"`
	Height            int    `json:"height"`
	URL               string `json:"url"`
	AccessibilityText string `json:"accessibilityText"`
}

const (
	speechTemplate   = "The subject of the image appears to be approximately at %s degrees."
	subtitleTemplate = "It appears that the object in the frame is at an angle of %s"

	cardImageSize     = 400
	accessibilityText = "Picture of a lock"
	displayCropped    = "CROPPED"
)

type Formatter struct {
	imageBaseURL string
}

// NewFormatter returns a formatter that links card images as
// <imageBaseURL>/<name>.jpg.
func NewFormatter(imageBaseURL string) *Formatter {
	return &Formatter{imageBaseURL: strings.TrimRight(imageBaseURL, "/")}
}

func (f *Formatter) ImageURL(name string) string {
	return f.imageBaseURL + "/" + name + ".jpg"
}

// Voice builds the assistant envelope for a predicted label. Neither argument
// is validated.
func (f *Formatter) Voice(label, name string) Envelope {
	return Envelope{
		Payload: Payload{
			Google: Google{
				ExpectUserResponse: false,
				RichResponse: RichResponse{
					Items: []Item{
						{SimpleResponse: &SimpleResponse{
							TextToSpeech: fmt.Sprintf(speechTemplate, label),
						}},
						{BasicCard: &BasicCard{
							Subtitle: fmt.Sprintf(subtitleTemplate, label),
							Image: Image{
								Width:             cardImageSize,
								Height:            cardImageSize,
								URL:               f.ImageURL(name),
								AccessibilityText: accessibilityText,
							},
							ImageDisplayOptions: displayCropped,
						}},
					},
				},
			},
		},
	}
}
