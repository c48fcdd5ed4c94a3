// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jeranaias/agendeid-chat/internal/format"
)

// UnknownFormatText is shown when an object reply carries no text field.
const UnknownFormatText = "Resposta do servidor em formato desconhecido"

var (
	textKeys     = []string{"response", "resposta", "message", "mensagem"}
	fieldsKeys   = []string{"fields", "parametros"}
	kindKeys     = []string{"kind", "tipo"}
	redirectKeys = []string{"redirect", "redirecionar"}
	optionsKeys  = []string{"options", "opcoes"}
	formKeys     = []string{"form", "formulario", "campos"}
)

// =============================================================================
// ERRORS
// =============================================================================

// MalformedResponseError is returned when a payload is neither an object nor
// a string.
type MalformedResponseError struct {
	Payload any
}

func (e *MalformedResponseError) Error() string {
	if e.Payload == nil {
		return "malformed response: empty payload"
	}
	return fmt.Sprintf("malformed response: unexpected payload type %T", e.Payload)
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Result is the outcome of classification. Exactly one field is set.
type Result struct {
	Command Command
	Reply   *ServerReply
}

// Classifier resolves decoded payloads into commands or replies.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a classifier. A nil logger uses slog.Default.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger}
}

// Classify classifies payload with the default logger.
func Classify(payload any) (Result, error) {
	return NewClassifier(nil).Classify(payload)
}

// Classify resolves payload into exactly one Result or a
// *MalformedResponseError. Sentinel texts short-circuit: they are neither
// sanitized nor inspected for fields.
func (c *Classifier) Classify(payload any) (Result, error) {
	var (
		obj     map[string]any
		rawText string
	)

	switch p := payload.(type) {
	case map[string]any:
		obj = p
		text, ok := firstText(p, textKeys)
		if !ok {
			c.logger.Warn("unrecognized reply format", "event", "reply_unknown_format", "keys", keysOf(p))
			text = UnknownFormatText
		}
		rawText = text
	case string:
		rawText = p
	default:
		return Result{}, &MalformedResponseError{Payload: payload}
	}

	if IsSentinel(rawText) {
		return Result{Command: ParseCommand(rawText)}, nil
	}

	reply := &ServerReply{
		Text:    format.Sanitize(rawText),
		RawText: rawText,
		Kind:    KindText,
	}
	if obj == nil {
		return Result{Reply: reply}, nil
	}

	if raw, ok := firstMap(obj, fieldsKeys); ok && len(raw) > 0 {
		reply.Fields = make(map[string]FieldStatus, len(raw))
		reply.RawFields = make(map[string]string, len(raw))
		for name, v := range raw {
			s, _ := scalarText(v)
			reply.RawFields[name] = s
			reply.Fields[name] = ParseFieldStatus(s)
		}
	}
	if tag, ok := firstText(obj, kindKeys); ok {
		reply.Kind = ParseKind(tag)
	}
	if target, ok := firstText(obj, redirectKeys); ok {
		reply.Redirect = target
	}
	if v, ok := obj["logout"]; ok {
		reply.Logout = truthy(v)
	}

	switch reply.Kind {
	case KindHTML:
		src := rawText
		if h, ok := obj["html"].(string); ok && h != "" {
			src = h
		}
		reply.HTML = format.SanitizeHTML(src)
	case KindOptions:
		reply.Options = parseOptions(firstList(obj, optionsKeys))
	case KindForm:
		reply.Form = parseForm(firstList(obj, formKeys))
	}

	return Result{Reply: reply}, nil
}

// =============================================================================
// PAYLOAD HELPERS
// =============================================================================

// firstText returns the first non-empty text under keys. ok is true when any
// of the keys holds a scalar, even an empty one.
func firstText(obj map[string]any, keys []string) (string, bool) {
	found := false
	for _, k := range keys {
		v, present := obj[k]
		if !present {
			continue
		}
		s, ok := scalarText(v)
		if !ok {
			continue
		}
		found = true
		if s != "" {
			return s, true
		}
	}
	return "", found
}

func firstMap(obj map[string]any, keys []string) (map[string]any, bool) {
	for _, k := range keys {
		if m, ok := obj[k].(map[string]any); ok {
			return m, true
		}
	}
	return nil, false
}

func firstList(obj map[string]any, keys []string) []any {
	for _, k := range keys {
		if l, ok := obj[k].([]any); ok {
			return l
		}
	}
	return nil
}

func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	case float64:
		return t != 0
	default:
		return false
	}
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func parseOptions(items []any) []Option {
	if len(items) == 0 {
		return nil
	}
	out := make([]Option, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, Option{Label: v, Value: v})
		case map[string]any:
			label, _ := firstText(v, []string{"label", "texto", "text", "titulo"})
			value, _ := firstText(v, []string{"value", "valor", "comando", "command"})
			if value == "" {
				value = label
			}
			if label == "" {
				label = value
			}
			if label != "" {
				out = append(out, Option{Label: label, Value: value})
			}
		}
	}
	return out
}

func parseForm(items []any) []FormField {
	if len(items) == 0 {
		return nil
	}
	out := make([]FormField, 0, len(items))
	for _, item := range items {
		var f FormField
		switch v := item.(type) {
		case string:
			f.Name = v
		case map[string]any:
			f.Name, _ = firstText(v, []string{"name", "nome", "campo"})
			f.Label, _ = firstText(v, []string{"label", "rotulo", "titulo"})
			f.Type, _ = firstText(v, []string{"type", "tipo"})
		}
		if f.Name == "" {
			continue
		}
		if f.Label == "" {
			f.Label = FieldLabel(f.Name)
		}
		if f.Type == "" {
			f.Type = "text"
		}
		out = append(out, f)
	}
	return out
}
