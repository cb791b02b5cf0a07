// Package conv builds model-specific prompts from a user message. Each named
// template selects role markers and separators matching the conversation
// format the model was trained with, and places the image token(s) the vision
// tower expects.
package conv

import (
	"fmt"
	"strings"
)

// Image placeholder tokens understood by llava-family models.
const (
	ImageToken   = "<image>"
	ImStartToken = "<im_start>"
	ImEndToken   = "<im_end>"
)

// Style selects how roles and separators are laid out.
type Style int

const (
	// StyleChatML uses <|im_start|>role ... <|im_end|> blocks (Qwen family).
	StyleChatML Style = iota
	// StyleTwo uses "USER:"/"ASSISTANT:" turns with a two-separator scheme
	// (vicuna v1 family).
	StyleTwo
	// StylePlain emits the bare message, used by pretraining-style checkpoints.
	StylePlain
)

// Template describes one conversation mode.
type Template struct {
	Name   string
	Style  Style
	System string
	Roles  [2]string
	Sep    string
	Sep2   string
}

var templates = map[string]Template{
	"qwen_2": {
		Name:   "qwen_2",
		Style:  StyleChatML,
		System: "You are a helpful assistant.",
		Roles:  [2]string{"user", "assistant"},
		Sep:    "<|im_end|>",
	},
	"llava_v1": {
		Name:   "llava_v1",
		Style:  StyleTwo,
		System: "A chat between a curious human and an artificial intelligence assistant. The assistant gives helpful, detailed, and polite answers to the human's questions.",
		Roles:  [2]string{"USER", "ASSISTANT"},
		Sep:    " ",
		Sep2:   "</s>",
	},
	"plain": {
		Name:  "plain",
		Style: StylePlain,
		Roles: [2]string{"", ""},
		Sep:   "\n",
	},
}

// Lookup returns the template registered under the given mode name.
func Lookup(mode string) (Template, error) {
	t, ok := templates[mode]
	if !ok {
		return Template{}, fmt.Errorf("unknown conversation mode: %s", mode)
	}
	return t, nil
}

// Modes lists the registered template names.
func Modes() []string {
	out := make([]string, 0, len(templates))
	for name := range templates {
		out = append(out, name)
	}
	return out
}

// WrapImage prefixes the user message with the image placeholder the model
// configuration requires.
func WrapImage(msg string, useImStartEnd bool) string {
	if useImStartEnd {
		return ImStartToken + ImageToken + ImEndToken + "\n" + msg
	}
	return ImageToken + "\n" + msg
}

// Prompt renders a single user turn plus an empty assistant turn, ready for
// generation.
func (t Template) Prompt(msg string) string {
	switch t.Style {
	case StyleChatML:
		var b strings.Builder
		b.WriteString("<|im_start|>system\n")
		b.WriteString(t.System)
		b.WriteString(t.Sep)
		b.WriteString("\n")
		b.WriteString("<|im_start|>")
		b.WriteString(t.Roles[0])
		b.WriteString("\n")
		b.WriteString(msg)
		b.WriteString(t.Sep)
		b.WriteString("\n")
		b.WriteString("<|im_start|>")
		b.WriteString(t.Roles[1])
		b.WriteString("\n")
		return b.String()
	case StyleTwo:
		var b strings.Builder
		b.WriteString(t.System)
		b.WriteString(t.Sep)
		b.WriteString(t.Roles[0])
		b.WriteString(": ")
		b.WriteString(msg)
		b.WriteString(t.Sep)
		b.WriteString(t.Roles[1])
		b.WriteString(":")
		return b.String()
	default:
		return msg + t.Sep
	}
}
