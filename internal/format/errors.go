package format

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"pethub/internal/auth"
	"pethub/internal/infra/surehub"
	"pethub/internal/resolve"
	"pethub/internal/timerange"
)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

// Error writes a failure to the error stream. Text mode prints one line;
// JSON mode emits a payload with a stable kind so scripts can branch on it.
func (r *Renderer) Error(err error) {
	if !r.asJSON {
		fmt.Fprintf(r.errOut, "%s %v\n", errorStyle.Render("error:"), err)
		return
	}

	payload := map[string]any{
		"kind":    errorKind(err),
		"message": err.Error(),
	}
	var ambiguous *resolve.AmbiguousError
	if errors.As(err, &ambiguous) {
		matches := make([]map[string]any, len(ambiguous.Matches))
		for i, m := range ambiguous.Matches {
			matches[i] = map[string]any{"id": m.ID, "name": m.Name}
		}
		payload["matches"] = matches
	}
	enc := json.NewEncoder(r.errOut)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"error": payload})
}

func errorKind(err error) string {
	var (
		notFound  *resolve.NotFoundError
		ambiguous *resolve.AmbiguousError
		badRange  *timerange.ParseError
		authErr   *auth.AuthError
		apiErr    *surehub.APIError
	)
	switch {
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &ambiguous):
		return "ambiguous"
	case errors.As(err, &badRange):
		return "bad_range"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &apiErr):
		return "api_" + string(apiErr.Kind)
	default:
		return "error"
	}
}
