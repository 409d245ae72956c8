//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation
#import <AppKit/AppKit.h>
#include <stdlib.h>

typedef struct {
    unsigned int id;
    double fx, fy, fw, fh;
    double vx, vy, vw, vh;
} NSScreenInfo;

// ns_list_screens reports screens in global top-left coordinates. AppKit
// frames are bottom-left origin; flipping uses the primary screen's height,
// which matches what the window server reports for window bounds.
static int ns_list_screens(NSScreenInfo **out, int *count) {
    @autoreleasepool {
        NSArray<NSScreen *> *screens = [NSScreen screens];
        int n = (int)[screens count];
        if (n == 0) {
            return -1;
        }
        double primaryMaxY = NSMaxY([screens[0] frame]);
        NSScreenInfo *infos = (NSScreenInfo *)calloc(n, sizeof(NSScreenInfo));
        for (int i = 0; i < n; i++) {
            NSScreen *s = screens[i];
            NSRect f = [s frame];
            NSRect v = [s visibleFrame];
            NSScreenInfo *info = &infos[i];
            NSNumber *num = [[s deviceDescription] objectForKey:@"NSScreenNumber"];
            info->id = num != nil ? [num unsignedIntValue] : (unsigned int)i;
            info->fx = NSMinX(f);
            info->fy = primaryMaxY - NSMaxY(f);
            info->fw = NSWidth(f);
            info->fh = NSHeight(f);
            info->vx = NSMinX(v);
            info->vy = primaryMaxY - NSMaxY(v);
            info->vw = NSWidth(v);
            info->vh = NSHeight(v);
        }
        *out = infos;
        *count = n;
        return 0;
    }
}

static void ns_free_screens(NSScreenInfo *infos) {
    free(infos);
}
*/
import "C"
import (
	"fmt"
	"unsafe"

	"github.com/mj1618/dockwatch/internal/model"
)

// Screens implements platform.Screens for macOS via NSScreen.
type Screens struct{}

// NewScreens creates the macOS display enumerator.
func NewScreens() *Screens {
	return &Screens{}
}

func (sc *Screens) List() ([]model.Screen, error) {
	var cScreens *C.NSScreenInfo
	var cCount C.int

	if C.ns_list_screens(&cScreens, &cCount) != 0 {
		return nil, fmt.Errorf("no screens attached")
	}
	defer C.ns_free_screens(cScreens)

	cSlice := unsafe.Slice(cScreens, int(cCount))
	screens := make([]model.Screen, 0, int(cCount))
	for _, cs := range cSlice {
		screens = append(screens, model.Screen{
			ID: uint32(cs.id),
			Frame: model.Rect{
				X: float64(cs.fx), Y: float64(cs.fy),
				W: float64(cs.fw), H: float64(cs.fh),
			},
			Visible: model.Rect{
				X: float64(cs.vx), Y: float64(cs.vy),
				W: float64(cs.vw), H: float64(cs.vh),
			},
		})
	}
	return screens, nil
}
