package model

// Window is one entry in the window-server snapshot. It is derived fresh on
// every scan and never persisted.
type Window struct {
	App      string  `yaml:"app"               json:"app"`
	PID      int     `yaml:"pid"               json:"pid"`
	ID       int     `yaml:"id"                json:"id"`
	Title    string  `yaml:"title,omitempty"   json:"title,omitempty"`
	Layer    int     `yaml:"layer"             json:"layer"`
	Alpha    float64 `yaml:"alpha"             json:"alpha"`
	OnScreen bool    `yaml:"onscreen"          json:"onscreen"`
	Regular  bool    `yaml:"regular"           json:"regular"`
	Focused  bool    `yaml:"focused,omitempty" json:"focused,omitempty"`
	Frame    Rect    `yaml:"frame"             json:"frame"`
}
