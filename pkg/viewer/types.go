package viewer

// UserState mirrors the API's user state enum.
type UserState string

const (
	UserStateEnabled    UserState = "ENABLED"
	UserStateWaitlisted UserState = "WAITLISTED"
	UserStateUnknown    UserState = "UNKNOWN"
)

// BasePlan describes an organization's subscription plan.
type BasePlan struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubscriptionInfo carries an organization's billing plan.
type SubscriptionInfo struct {
	BasePlan BasePlan `json:"basePlan"`
}

// Organization is a console tenant.
type Organization struct {
	ID               string            `json:"id"`
	MRN              string            `json:"mrn"`
	Name             string            `json:"name"`
	Company          string            `json:"company,omitempty"`
	Description      string            `json:"description"`
	Capabilities     []string          `json:"capabilities"`
	SpacesCount      int               `json:"spacesCount"`
	SubscriptionInfo *SubscriptionInfo `json:"subscriptionInfo,omitempty"`
}

// OrganizationRef is the lightweight owner reference carried on a
// space.
type OrganizationRef struct {
	ID          string `json:"id"`
	MRN         string `json:"mrn"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// SpaceSettings are the per-space feature toggles.
type SpaceSettings struct {
	EOLAssets *struct {
		Enable          bool `json:"enable"`
		MonthsInAdvance int  `json:"monthsInAdvance,omitempty"`
	} `json:"eolAssetsConfiguration,omitempty"`
	PlatformVulnerability *struct {
		Enable bool `json:"enable"`
	} `json:"platformVulnerabilityConfiguration,omitempty"`
	Cases *struct {
		Enable     bool `json:"enable"`
		AutoCreate bool `json:"autoCreate,omitempty"`
	} `json:"casesConfiguration,omitempty"`
	GarbageCollectAssets *struct {
		Enable    bool `json:"enable"`
		AfterDays int  `json:"afterDays,omitempty"`
	} `json:"garbageCollectAssetsConfiguration,omitempty"`
}

// Space is a console workspace.
type Space struct {
	ID               string           `json:"id"`
	MRN              string           `json:"mrn"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	PriorityFindings int              `json:"priorityFindings,omitempty"`
	Shared           bool             `json:"shared,omitempty"`
	Organization     *OrganizationRef `json:"organization,omitempty"`
	Settings         *SpaceSettings   `json:"settings,omitempty"`
}

// Viewer is the signed-in principal's console profile.
type Viewer struct {
	MRN           string         `json:"mrn"`
	Email         string         `json:"email,omitempty"`
	Name          string         `json:"name"`
	CreatedAt     string         `json:"createdAt,omitempty"`
	State         UserState      `json:"state,omitempty"`
	Organizations []Organization `json:"organizations,omitempty"`
	FirstSpace    *Space         `json:"firstSpace,omitempty"`
}

// ColorMode is the viewer's UI color preference.
type ColorMode string

const (
	ColorModeLight  ColorMode = "light"
	ColorModeDark   ColorMode = "dark"
	ColorModeSystem ColorMode = "system"
)

// Settings are the recognized per-user settings, parsed out of the
// API's raw key/value list. Unknown keys are dropped.
type Settings struct {
	LastSpaceID         string
	Colorblind          string
	ColorMode           ColorMode
	AssetDoNotAskDelete bool
}

// RawSetting is one key/value entry as the API returns it.
type RawSetting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParseSettings folds the raw key/value list into Settings. Unknown
// keys and malformed color modes are ignored.
func ParseSettings(raw []RawSetting) Settings {
	var s Settings
	for _, entry := range raw {
		switch entry.Key {
		case "last_space_id":
			s.LastSpaceID = entry.Value
		case "colorblind":
			s.Colorblind = entry.Value
		case "colormode":
			switch ColorMode(entry.Value) {
			case ColorModeLight, ColorModeDark, ColorModeSystem:
				s.ColorMode = ColorMode(entry.Value)
			}
		case "assetDoNotAskToDelete":
			s.AssetDoNotAskDelete = entry.Value == "true"
		}
	}
	return s
}
