//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation
#import <AppKit/AppKit.h>
#include <stdlib.h>

static int proc_pid_for_bundle(const char *bundleID) {
    @autoreleasepool {
        NSString *bid = [NSString stringWithUTF8String:bundleID];
        NSArray<NSRunningApplication *> *apps =
            [NSRunningApplication runningApplicationsWithBundleIdentifier:bid];
        if ([apps count] == 0) {
            return -1;
        }
        return (int)[apps[0] processIdentifier];
    }
}
*/
import "C"
import (
	"fmt"
	"unsafe"
)

// Processes implements platform.Processes via NSRunningApplication.
type Processes struct{}

// NewProcesses creates the macOS process locator.
func NewProcesses() *Processes {
	return &Processes{}
}

func (p *Processes) PIDOf(bundleID string) (int, error) {
	cBundle := C.CString(bundleID)
	defer C.free(unsafe.Pointer(cBundle))

	pid := int(C.proc_pid_for_bundle(cBundle))
	if pid < 0 {
		return 0, fmt.Errorf("no running process for bundle %q", bundleID)
	}
	return pid, nil
}
