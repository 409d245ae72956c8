//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation -framework Foundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>

static int is_trusted() {
    return AXIsProcessTrusted();
}

static void request_trust() {
    CFStringRef keys[] = { kAXTrustedCheckOptionPrompt };
    CFTypeRef values[] = { kCFBooleanTrue };
    CFDictionaryRef options = CFDictionaryCreate(
        kCFAllocatorDefault,
        (const void **)keys, (const void **)values, 1,
        &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
    AXIsProcessTrustedWithOptions(options);
    CFRelease(options);
}
*/
import "C"

// IsAccessibilityTrusted returns true if the process has accessibility permission.
func IsAccessibilityTrusted() bool {
	return C.is_trusted() != 0
}

// RequestAccessibilityPermission triggers the macOS accessibility permission
// prompt if the process is not yet trusted. The user grants permission at
// System Settings > Privacy & Security > Accessibility and restarts the
// process.
func RequestAccessibilityPermission() {
	if C.is_trusted() == 0 {
		C.request_trust()
	}
}
