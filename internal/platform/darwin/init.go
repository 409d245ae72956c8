//go:build darwin && cgo

package darwin

import (
	"os"

	"github.com/mj1618/dockwatch/internal/platform"
)

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		return &platform.Provider{
			Introspector: NewIntrospector(),
			WindowServer: NewWindowServer(),
			Screens:      NewScreens(),
			Processes:    NewProcesses(),
			Events:       NewEvents(),
			SelfPID:      os.Getpid(),
		}, nil
	}
	platform.RequestPermissionsFunc = RequestAccessibilityPermission
}
