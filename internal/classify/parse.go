package classify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dgallion1/esglens/internal/esg"
	"github.com/dgallion1/esglens/internal/llm"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformed means the model response was not a JSON array.
var ErrMalformed = errors.New("malformed classifier response")

// itemSchema only requires the four keys to be present; value types are
// coerced when decoding.
const itemSchema = `{
  "type": "object",
  "required": ["initiative", "category", "page", "evidence_sentence"]
}`

var compiledItemSchema = sync.OnceValue(func() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("finding.json", strings.NewReader(itemSchema)); err != nil {
		panic(fmt.Sprintf("add finding schema: %v", err))
	}
	return compiler.MustCompile("finding.json")
})

type item struct {
	Initiative any `json:"initiative"`
	Category   any `json:"category"`
	Page       any `json:"page"`
	Evidence   any `json:"evidence_sentence"`
}

// text renders a decoded JSON scalar as a string; null becomes "".
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

// pageNumber accepts integers, whole floats and numeric strings. Anything
// else maps to page 0.
func pageNumber(v any) int {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return 0
}

var codeFenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// ParseFindings decodes a model response into grouped findings. Elements
// that are not objects carrying all four keys are skipped. Values are taken
// as given apart from the page, which is coerced to an integer. The
// initiative name doubles as the highlight text.
func ParseFindings(raw string) (esg.Grouped, int, error) {
	body := stripCodeFence(raw)
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(body), &elems); err != nil {
		return nil, 0, fmt.Errorf("%w: %v (raw: %s)", ErrMalformed, err, llm.Truncate(body, 200))
	}

	schema := compiledItemSchema()
	out := esg.Grouped{}
	dropped := 0
	for _, el := range elems {
		var v any
		if err := json.Unmarshal(el, &v); err != nil {
			dropped++
			continue
		}
		if err := schema.Validate(v); err != nil {
			dropped++
			continue
		}
		var it item
		dec := json.NewDecoder(bytes.NewReader(el))
		dec.UseNumber()
		if err := dec.Decode(&it); err != nil {
			dropped++
			continue
		}
		initiative := text(it.Initiative)
		out.Add(text(it.Category), initiative, esg.Finding{
			Page:          pageNumber(it.Page),
			Evidence:      text(it.Evidence),
			HighlightText: initiative,
		})
	}
	return out, dropped, nil
}

