package platforms

import "strings"

// FormatWhatsAppText adapts reply text to WhatsApp's markup: headings (lines
// ending with a colon) become bold and double-asterisk bold collapses to the
// single-asterisk form WhatsApp renders. Text that already carries markup is
// left untouched.
func FormatWhatsAppText(text string) string {
	if text == "" {
		return text
	}
	if strings.Contains(text, "**") {
		return strings.ReplaceAll(text, "**", "*")
	}
	if strings.ContainsAny(text, "*_") {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			lines[i] = ""
			continue
		}
		if strings.HasSuffix(line, ":") {
			lines[i] = "*" + line + "*"
			continue
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
