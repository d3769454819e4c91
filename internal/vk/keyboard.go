package vk

// Button colors understood by the VK keyboard widget.
const (
	ColorPrimary   = "primary"
	ColorSecondary = "secondary"
	ColorPositive  = "positive"
	ColorNegative  = "negative"
)

// maxLabelLen is the VK limit for button labels. Dynamic labels (route names,
// board numbers) are truncated to fit.
const maxLabelLen = 40

// Keyboard is the VK message keyboard attachment: rows of buttons.
type Keyboard struct {
	OneTime bool       `json:"one_time"`
	Inline  bool       `json:"inline"`
	Buttons [][]Button `json:"buttons"`
}

// Button is one keyboard button with an opaque JSON payload that comes back
// verbatim on the inbound event when pressed.
type Button struct {
	Action ButtonAction `json:"action"`
	Color  string       `json:"color"`
}

// ButtonAction describes what the button shows and sends.
type ButtonAction struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Payload string `json:"payload"`
}

// NewKeyboard creates an empty keyboard. One-time keyboards disappear after a
// button is pressed.
func NewKeyboard(oneTime bool) *Keyboard {
	return &Keyboard{OneTime: oneTime}
}

// AddRow appends a row of buttons to the keyboard.
func (k *Keyboard) AddRow(buttons ...Button) {
	k.Buttons = append(k.Buttons, buttons)
}

// TextButton builds a text button, truncating the label to the VK limit.
func TextButton(label, color, payload string) Button {
	if runes := []rune(label); len(runes) > maxLabelLen {
		label = string(runes[:maxLabelLen])
	}
	return Button{
		Action: ButtonAction{
			Type:    "text",
			Label:   label,
			Payload: payload,
		},
		Color: color,
	}
}
