package schema

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/models"
)

// FieldDescription is the serializable, external-facing description of one
// predicate, used to drive form and UI generation.
type FieldDescription struct {
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	List        bool                   `json:"list,omitempty"`
	Required    bool                   `json:"required,omitempty"`
	ReadOnly    bool                   `json:"read_only,omitempty"`
	Ordered     bool                   `json:"ordered,omitempty"`
	AllowNew    bool                   `json:"allow_new,omitempty"`
	Permission  models.PermissionLevel `json:"permission,omitempty"`
	Choices     []string               `json:"choices,omitempty"`
	Targets     []string               `json:"targets,omitempty"`
	Description string                 `json:"description,omitempty"`
}

// Describe returns the field catalogue for a type. Hidden predicates are
// never included; new-only predicates only when newOnly is set (create
// forms). Autoload choice sets are resolved through the loader and cached.
func (r *Registry) Describe(ctx context.Context, t *EntityType, newOnly bool, loader ChoiceLoader) ([]FieldDescription, error) {
	out := make([]FieldDescription, 0, len(t.Predicates()))
	for _, p := range t.Predicates() {
		if p.Hidden {
			continue
		}
		if p.NewOnly && !newOnly {
			continue
		}
		choices := p.Choices
		if p.AutoloadChoices {
			loaded, err := r.ChoiceSet(ctx, p, loader)
			if err != nil {
				return nil, err
			}
			choices = loaded
		}
		out = append(out, FieldDescription{
			Name:        p.Name,
			Type:        string(p.Type),
			List:        p.List,
			Required:    p.Required,
			ReadOnly:    p.ReadOnly,
			Ordered:     p.Ordered,
			AllowNew:    p.AllowNew,
			Permission:  p.Permission,
			Choices:     choices,
			Targets:     p.RelTypes,
			Description: p.Description,
		})
	}
	return out, nil
}
