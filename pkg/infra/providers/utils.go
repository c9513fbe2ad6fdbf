package providers

import (
	"fmt"
	"strings"
	"time"
)

func FormatInstructions(instr []string) string {
	var b strings.Builder
	b.WriteString("[Instructions]\n")
	for _, rule := range instr {
		if strings.TrimSpace(rule) == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(rule)
		b.WriteByte('\n')
	}
	return b.String()
}

// FallbackID builds a response id for providers that do not return one.
func FallbackID(provider string) string {
	return fmt.Sprintf("%s-%d", provider, time.Now().UnixNano())
}
