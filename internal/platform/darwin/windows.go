//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework AppKit -framework Foundation
#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#import <AppKit/AppKit.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
    char app[256];
    char title[512];
    int pid;
    unsigned int windowID;
    int layer;
    double alpha;
    int onscreen;
    double x, y, w, h;
} CGWindowInfo;

static void copy_cf_string(CFDictionaryRef dict, CFStringRef key, char *buf, int buflen) {
    buf[0] = '\0';
    CFStringRef s = (CFStringRef)CFDictionaryGetValue(dict, key);
    if (s != NULL && CFGetTypeID(s) == CFStringGetTypeID()) {
        CFStringGetCString(s, buf, buflen, kCFStringEncodingUTF8);
    }
}

static double cf_number(CFDictionaryRef dict, CFStringRef key, double fallback) {
    CFNumberRef n = (CFNumberRef)CFDictionaryGetValue(dict, key);
    double out = fallback;
    if (n != NULL && CFGetTypeID(n) == CFNumberGetTypeID()) {
        CFNumberGetValue(n, kCFNumberDoubleType, &out);
    }
    return out;
}

static int cg_list_windows(CGWindowInfo **out, int *count) {
    CFArrayRef list = CGWindowListCopyWindowInfo(
        kCGWindowListOptionAll | kCGWindowListExcludeDesktopElements, kCGNullWindowID);
    if (list == NULL) {
        return -1;
    }
    int n = (int)CFArrayGetCount(list);
    CGWindowInfo *infos = (CGWindowInfo *)calloc(n > 0 ? n : 1, sizeof(CGWindowInfo));
    for (int i = 0; i < n; i++) {
        CFDictionaryRef dict = (CFDictionaryRef)CFArrayGetValueAtIndex(list, i);
        CGWindowInfo *w = &infos[i];
        copy_cf_string(dict, kCGWindowOwnerName, w->app, sizeof(w->app));
        copy_cf_string(dict, kCGWindowName, w->title, sizeof(w->title));
        w->pid = (int)cf_number(dict, kCGWindowOwnerPID, 0);
        w->windowID = (unsigned int)cf_number(dict, kCGWindowNumber, 0);
        w->layer = (int)cf_number(dict, kCGWindowLayer, 0);
        w->alpha = cf_number(dict, kCGWindowAlpha, 1.0);
        w->onscreen = CFDictionaryGetValue(dict, kCGWindowIsOnscreen) == kCFBooleanTrue;

        CFDictionaryRef boundsDict = (CFDictionaryRef)CFDictionaryGetValue(dict, kCGWindowBounds);
        CGRect bounds = CGRectZero;
        if (boundsDict != NULL) {
            CGRectMakeWithDictionaryRepresentation(boundsDict, &bounds);
        }
        w->x = bounds.origin.x;
        w->y = bounds.origin.y;
        w->w = bounds.size.width;
        w->h = bounds.size.height;
    }
    CFRelease(list);
    *out = infos;
    *count = n;
    return 0;
}

static void cg_free_windows(CGWindowInfo *infos) {
    free(infos);
}

static int ns_frontmost_app(char *name, int namelen) {
    @autoreleasepool {
        NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
        if (app == nil) {
            return -1;
        }
        name[0] = '\0';
        const char *n = [[app localizedName] UTF8String];
        if (n != NULL) {
            strncpy(name, n, namelen - 1);
            name[namelen - 1] = '\0';
        }
        return (int)[app processIdentifier];
    }
}
*/
import "C"
import (
	"fmt"
	"unsafe"

	"github.com/mj1618/dockwatch/internal/model"
)

// WindowServer implements platform.WindowServer for macOS using
// CGWindowListCopyWindowInfo. This path needs no accessibility permission
// and never blocks on the observed applications.
type WindowServer struct{}

// NewWindowServer creates the macOS window server backend.
func NewWindowServer() *WindowServer {
	return &WindowServer{}
}

func (ws *WindowServer) ListWindows() ([]model.Window, error) {
	var cWindows *C.CGWindowInfo
	var cCount C.int

	if C.cg_list_windows(&cWindows, &cCount) != 0 {
		return nil, fmt.Errorf("failed to enumerate windows")
	}
	defer C.cg_free_windows(cWindows)

	count := int(cCount)
	if count == 0 {
		return []model.Window{}, nil
	}

	cSlice := unsafe.Slice(cWindows, count)
	windows := make([]model.Window, 0, count)
	for i := 0; i < count; i++ {
		cw := cSlice[i]
		w := model.Window{
			App:      C.GoString(&cw.app[0]),
			PID:      int(cw.pid),
			ID:       int(cw.windowID),
			Title:    C.GoString(&cw.title[0]),
			Layer:    int(cw.layer),
			Alpha:    float64(cw.alpha),
			OnScreen: cw.onscreen != 0,
			Frame: model.Rect{
				X: float64(cw.x),
				Y: float64(cw.y),
				W: float64(cw.w),
				H: float64(cw.h),
			},
		}
		// A window is "regular" when it sits on the normal layer and has
		// real extent; menu bar extras and overlay artifacts fail this.
		w.Regular = w.Layer == 0 && w.Frame.W > 1 && w.Frame.H > 1
		windows = append(windows, w)
	}

	// Mark the frontmost app's first regular window as focused.
	if _, frontPID, err := ws.FrontmostApp(); err == nil {
		for i := range windows {
			if windows[i].PID == frontPID && windows[i].Regular && windows[i].OnScreen {
				windows[i].Focused = true
				break
			}
		}
	}

	return windows, nil
}

func (ws *WindowServer) FrontmostApp() (string, int, error) {
	buf := (*C.char)(C.malloc(256))
	defer C.free(unsafe.Pointer(buf))

	pid := int(C.ns_frontmost_app(buf, 256))
	if pid < 0 {
		return "", 0, fmt.Errorf("no frontmost application")
	}
	return C.GoString(buf), pid, nil
}
