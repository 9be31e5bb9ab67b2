package accounts

import (
	"context"
	"strings"

	"github.com/goliatone/go-router"
)

// TemplateUserKey is the template variable holding the current user
var TemplateUserKey = "current_user"

// DefaultThemeSkin matches the stock admin theme
var DefaultThemeSkin = "skin-blue"

// LayoutSettings drives the admin shell chrome. Every flag maps to a theme
// body class so templates only deal with one computed string.
type LayoutSettings struct {
	Skin             string
	FixedLayout      bool
	BoxedLayout      bool
	CollapsedSidebar bool
	MiniSidebar      bool
}

// LoadLayoutSettings reads the layout flags from the settings store.
func LoadLayoutSettings(ctx context.Context, keys KeyStorage) LayoutSettings {
	return LayoutSettings{
		Skin:             keys.GetString(ctx, SettingThemeSkin, DefaultThemeSkin),
		FixedLayout:      keys.GetBool(ctx, SettingLayoutFixed, false),
		BoxedLayout:      keys.GetBool(ctx, SettingLayoutBoxed, false),
		CollapsedSidebar: keys.GetBool(ctx, SettingLayoutCollapsedSidebar, false),
		MiniSidebar:      keys.GetBool(ctx, SettingLayoutMiniSidebar, true),
	}
}

// BodyClass assembles the body class list for the admin layout.
func (s LayoutSettings) BodyClass() string {
	classes := []string{"hold-transition"}

	skin := s.Skin
	if skin == "" {
		skin = DefaultThemeSkin
	}
	classes = append(classes, skin)

	if s.FixedLayout {
		classes = append(classes, "fixed")
	}
	if s.BoxedLayout {
		classes = append(classes, "layout-boxed")
	}
	if s.CollapsedSidebar {
		classes = append(classes, "sidebar-collapse")
	}
	if s.MiniSidebar {
		classes = append(classes, "sidebar-mini")
	}

	return strings.Join(classes, " ")
}

// TemplateData exposes the layout settings to templates.
func (s LayoutSettings) TemplateData() map[string]any {
	return map[string]any{
		"body_class":        s.BodyClass(),
		"skin":              s.Skin,
		"fixed_layout":      s.FixedLayout,
		"boxed_layout":      s.BoxedLayout,
		"collapsed_sidebar": s.CollapsedSidebar,
		"mini_sidebar":      s.MiniSidebar,
	}
}

// LayoutTemplateData merges the computed layout chrome with the current
// session, if the auth middleware stored one under userKey.
func LayoutTemplateData(ctx router.Context, keys KeyStorage, userKey string) map[string]any {
	if userKey == "" {
		userKey = TemplateUserKey
	}

	data := LoadLayoutSettings(ctx.Context(), keys).TemplateData()

	if user := ctx.Locals(userKey); user != nil {
		data[TemplateUserKey] = user
	}

	return data
}

// MergeLayoutData folds page data on top of the layout chrome, page values
// win on key collisions.
func MergeLayoutData(layout, page map[string]any) map[string]any {
	merged := make(map[string]any, len(layout)+len(page))
	for k, v := range layout {
		merged[k] = v
	}
	for k, v := range page {
		merged[k] = v
	}
	return merged
}
