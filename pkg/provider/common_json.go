package provider

import (
	"net/http"
	"strings"
)

const strictJSONHint = "RETURN ONLY A STRICT JSON OBJECT. NO PROSE, NO EXPLANATIONS, NO MARKDOWN."

// buildSystem returns the system instruction, with the strict-JSON hint
// appended when jsonMode is set.
func buildSystem(instruction string, jsonMode bool) string {
	instr := strings.TrimSpace(instruction)
	if !jsonMode {
		return instr
	}
	if instr == "" {
		return strictJSONHint
	}
	return instr + "\n\n" + strictJSONHint
}

func setExtraHeaders(req *http.Request, extra map[string]string) {
	for k, v := range extra {
		if k == "" || v == "" {
			continue
		}
		req.Header.Set(k, v)
	}
}
