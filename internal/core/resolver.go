package core

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fridgelingo/fridgelingo/internal/ai"
	"github.com/fridgelingo/fridgelingo/internal/domain"
)

// defaultDenylist holds detector labels that never name a concrete grocery item.
var defaultDenylist = []string{
	// categories
	"Food", "Fruit", "Produce", "Natural foods", "Ingredient", "Vegetable",
	"Whole food", "Local food", "Vegan nutrition", "Superfood", "Dish",
	"Cuisine", "Recipe", "Bush", "Seedless fruit", "Staple food", "Botanical",
	"Plant", "Leaf vegetable", "Food group", "Nutrient",
	// electronics
	"Gadget", "Technology", "Electronic device", "Output device",
	"Display device", "Computer monitor", "Multimedia", "Screen", "Computer",
	"Peripheral", "Computer accessory", "Personal computer",
	"Flat panel display", "Engineering",
	// materials, colours and shapes
	"Plastic", "Electric blue", "Font", "Logo", "Brand", "Red", "Green",
	"Blue", "Yellow", "Orange", "White", "Black", "Purple", "Circle",
	"Rectangle", "Colorfulness",
	// photography
	"Close-up", "Macro photography",
}

// DefaultDenylist returns a copy of the built-in label denylist.
func DefaultDenylist() []string {
	out := make([]string, len(defaultDenylist))
	copy(out, defaultDenylist)
	return out
}

// LabelResolver picks one canonical food label out of raw detector labels.
type LabelResolver struct {
	gen      ai.Generator
	denylist map[string]struct{}
	log      *slog.Logger
}

// NewLabelResolver creates a resolver. gen may be nil, in which case only the
// denylist fallback is used.
func NewLabelResolver(gen ai.Generator, denylist []string, logger *slog.Logger) *LabelResolver {
	set := make(map[string]struct{}, len(denylist))
	for _, d := range denylist {
		if key := domain.LabelKey(d); key != "" {
			set[key] = struct{}{}
		}
	}
	return &LabelResolver{
		gen:      gen,
		denylist: set,
		log:      logger.With("component", "label_resolver"),
	}
}

// Denied reports whether label is on the denylist, ignoring case.
func (r *LabelResolver) Denied(label string) bool {
	_, ok := r.denylist[domain.LabelKey(label)]
	return ok
}

// Resolve asks the AI chooser for the most specific food label and falls back
// to the first raw label not on the denylist. It returns false when nothing
// usable is left.
func (r *LabelResolver) Resolve(ctx context.Context, rawLabels []string) (string, bool) {
	labels := make([]string, 0, len(rawLabels))
	for _, l := range rawLabels {
		if l = domain.NormalizeLabel(l); l != "" {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return "", false
	}

	if chosen, ok := r.choose(ctx, labels); ok {
		return chosen, true
	}

	for _, l := range labels {
		if !r.Denied(l) {
			return l, true
		}
	}
	return "", false
}

type labelChoice struct {
	FoodLabel *string `json:"foodLabel"`
}

func (r *LabelResolver) choose(ctx context.Context, labels []string) (string, bool) {
	if r.gen == nil {
		return "", false
	}

	raw, err := r.gen.Generate(ctx, ai.BuildLabelPrompt(labels))
	if err != nil {
		r.log.WarnContext(ctx, "label chooser unavailable, using fallback",
			slog.String("error", err.Error()),
		)
		return "", false
	}

	var choice labelChoice
	if err := ai.DecodeObject(raw, &choice); err != nil {
		r.log.WarnContext(ctx, "label chooser returned malformed output, using fallback",
			slog.String("error", err.Error()),
		)
		return "", false
	}
	if choice.FoodLabel == nil {
		return "", false
	}

	chosen := domain.NormalizeLabel(ai.CleanText(*choice.FoodLabel))
	if chosen == "" || strings.EqualFold(chosen, "null") || r.Denied(chosen) {
		return "", false
	}
	return chosen, true
}
