//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation -framework Foundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdlib.h>

static AXUIElementRef ax_app_root(pid_t pid) {
    return AXUIElementCreateApplication(pid);
}

static int ax_copy_children(AXUIElementRef el, CFArrayRef *out) {
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, kAXChildrenAttribute, &value);
    if (err != kAXErrorSuccess) {
        return (int)err;
    }
    if (value == NULL || CFGetTypeID(value) != CFArrayGetTypeID()) {
        if (value) CFRelease(value);
        return (int)kAXErrorNoValue;
    }
    *out = (CFArrayRef)value;
    return 0;
}

static AXUIElementRef ax_child_at(CFArrayRef children, int i) {
    AXUIElementRef el = (AXUIElementRef)CFArrayGetValueAtIndex(children, i);
    CFRetain(el);
    return el;
}

// ax_copy_string reads a string (or URL) attribute into buf; returns 0 on
// success, nonzero AXError or -1 otherwise.
static int ax_copy_string(AXUIElementRef el, CFStringRef attr, char *buf, int buflen) {
    buf[0] = '\0';
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, attr, &value);
    if (err != kAXErrorSuccess || value == NULL) {
        return err != kAXErrorSuccess ? (int)err : -1;
    }
    int ok = -1;
    if (CFGetTypeID(value) == CFStringGetTypeID()) {
        if (CFStringGetCString((CFStringRef)value, buf, buflen, kCFStringEncodingUTF8)) {
            ok = 0;
        }
    } else if (CFGetTypeID(value) == CFURLGetTypeID()) {
        CFStringRef s = CFURLGetString((CFURLRef)value);
        if (s != NULL && CFStringGetCString(s, buf, buflen, kCFStringEncodingUTF8)) {
            ok = 0;
        }
    }
    CFRelease(value);
    return ok;
}

static int ax_copy_point(AXUIElementRef el, double *x, double *y) {
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, kAXPositionAttribute, &value);
    if (err != kAXErrorSuccess || value == NULL) {
        return err != kAXErrorSuccess ? (int)err : -1;
    }
    CGPoint p;
    int ok = AXValueGetValue((AXValueRef)value, kAXValueTypeCGPoint, &p) ? 0 : -1;
    CFRelease(value);
    if (ok == 0) {
        *x = p.x;
        *y = p.y;
    }
    return ok;
}

static int ax_copy_size(AXUIElementRef el, double *w, double *h) {
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, kAXSizeAttribute, &value);
    if (err != kAXErrorSuccess || value == NULL) {
        return err != kAXErrorSuccess ? (int)err : -1;
    }
    CGSize s;
    int ok = AXValueGetValue((AXValueRef)value, kAXValueTypeCGSize, &s) ? 0 : -1;
    CFRelease(value);
    if (ok == 0) {
        *w = s.width;
        *h = s.height;
    }
    return ok;
}

static int ax_focused_window(pid_t pid, AXUIElementRef *out) {
    AXUIElementRef app = AXUIElementCreateApplication(pid);
    if (app == NULL) {
        return -1;
    }
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(app, kAXFocusedWindowAttribute, &value);
    CFRelease(app);
    if (err != kAXErrorSuccess || value == NULL) {
        return err != kAXErrorSuccess ? (int)err : -1;
    }
    *out = (AXUIElementRef)value;
    return 0;
}

static int ax_set_point(AXUIElementRef el, double x, double y) {
    CGPoint p = CGPointMake(x, y);
    AXValueRef v = AXValueCreate(kAXValueTypeCGPoint, &p);
    if (v == NULL) {
        return -1;
    }
    AXError err = AXUIElementSetAttributeValue(el, kAXPositionAttribute, v);
    CFRelease(v);
    return (int)err;
}

static int ax_set_size(AXUIElementRef el, double w, double h) {
    CGSize s = CGSizeMake(w, h);
    AXValueRef v = AXValueCreate(kAXValueTypeCGSize, &s);
    if (v == NULL) {
        return -1;
    }
    AXError err = AXUIElementSetAttributeValue(el, kAXSizeAttribute, v);
    CFRelease(v);
    return (int)err;
}

static unsigned long long ax_hash(AXUIElementRef el) {
    return (unsigned long long)CFHash(el);
}

// The dock exposes badge text through the AXStatusLabel attribute, which
// has no kAX constant in the public headers.
static CFStringRef status_label_attr() {
    return CFSTR("AXStatusLabel");
}
*/
import "C"
import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/mj1618/dockwatch/internal/model"
	"github.com/mj1618/dockwatch/internal/platform"
)

const (
	axErrAttributeUnsupported = -25205
	axErrNoValue              = -25212
	axErrAPIDisabled          = -25211
	axErrNotImplemented       = -25208
	axErrInvalidElement       = -25202
)

// node is an owned AXUIElementRef. The finalizer releases the underlying
// CF object, so Go's lifetime tracking stands in for manual CFRelease.
type node struct {
	el C.AXUIElementRef
}

func wrapNode(el C.AXUIElementRef) *node {
	n := &node{el: el}
	runtime.SetFinalizer(n, func(n *node) {
		C.CFRelease(C.CFTypeRef(n.el))
	})
	return n
}

// Token hashes the underlying element. Two refs to the same node hash
// equal, which is what the traversal cycle guard needs.
func (n *node) Token() uint64 {
	t := uint64(C.ax_hash(n.el))
	runtime.KeepAlive(n)
	return t
}

// Introspector implements platform.Introspector for macOS.
type Introspector struct{}

// NewIntrospector creates the macOS accessibility introspector.
func NewIntrospector() *Introspector {
	return &Introspector{}
}

func (in *Introspector) Trusted() bool {
	return IsAccessibilityTrusted()
}

func (in *Introspector) AppRoot(pid int) (platform.NodeRef, error) {
	if !IsAccessibilityTrusted() {
		return nil, platform.ErrPermissionDenied
	}
	el := C.ax_app_root(C.pid_t(pid))
	if el == nil {
		return nil, fmt.Errorf("no accessibility element for pid %d", pid)
	}
	return wrapNode(el), nil
}

func (in *Introspector) Children(ref platform.NodeRef) ([]platform.NodeRef, error) {
	n, err := toNode(ref)
	if err != nil {
		return nil, err
	}
	var arr C.CFArrayRef
	if rc := C.ax_copy_children(n.el, &arr); rc != 0 {
		runtime.KeepAlive(n)
		return nil, axError("children", int(rc))
	}
	defer C.CFRelease(C.CFTypeRef(arr))

	count := int(C.CFArrayGetCount(arr))
	children := make([]platform.NodeRef, 0, count)
	for i := 0; i < count; i++ {
		children = append(children, wrapNode(C.ax_child_at(arr, C.int(i))))
	}
	runtime.KeepAlive(n)
	return children, nil
}

func (in *Introspector) Attributes(ref platform.NodeRef) (model.NodeAttrs, error) {
	n, err := toNode(ref)
	if err != nil {
		return model.NodeAttrs{}, err
	}

	var attrs model.NodeAttrs
	buf := (*C.char)(C.malloc(1024))
	defer C.free(unsafe.Pointer(buf))

	// Role is read first: an invalid or dead element fails on this attribute.
	if rc := C.ax_copy_string(n.el, C.kAXRoleAttribute, buf, 1024); rc != 0 {
		if int(rc) == axErrInvalidElement || int(rc) == axErrAPIDisabled {
			runtime.KeepAlive(n)
			return model.NodeAttrs{}, axError("role", int(rc))
		}
	} else {
		attrs.Role = C.GoString(buf)
	}

	if C.ax_copy_string(n.el, C.kAXSubroleAttribute, buf, 1024) == 0 {
		attrs.Subrole = C.GoString(buf)
	}
	if C.ax_copy_string(n.el, C.kAXTitleAttribute, buf, 1024) == 0 {
		attrs.Title = C.GoString(buf)
	}
	if C.ax_copy_string(n.el, C.status_label_attr(), buf, 1024) == 0 {
		attrs.Label = C.GoString(buf)
	}
	if C.ax_copy_string(n.el, C.kAXURLAttribute, buf, 1024) == 0 {
		attrs.URL = C.GoString(buf)
	}

	var x, y, w, h C.double
	if C.ax_copy_point(n.el, &x, &y) == 0 {
		attrs.Position = model.Point{X: float64(x), Y: float64(y)}
	}
	if C.ax_copy_size(n.el, &w, &h) == 0 {
		attrs.Size = model.Size{W: float64(w), H: float64(h)}
	}

	runtime.KeepAlive(n)
	return attrs, nil
}

func (in *Introspector) FocusedWindow(pid int) (platform.NodeRef, error) {
	if !IsAccessibilityTrusted() {
		return nil, platform.ErrPermissionDenied
	}
	var el C.AXUIElementRef
	if rc := C.ax_focused_window(C.pid_t(pid), &el); rc != 0 {
		return nil, axError("focused window", int(rc))
	}
	return wrapNode(el), nil
}

func (in *Introspector) SetPosition(ref platform.NodeRef, p model.Point) error {
	n, err := toNode(ref)
	if err != nil {
		return err
	}
	rc := int(C.ax_set_point(n.el, C.double(p.X), C.double(p.Y)))
	runtime.KeepAlive(n)
	if rc != 0 {
		return fmt.Errorf("set position (AXError %d): %w", rc, platform.ErrMutationFailed)
	}
	return nil
}

func (in *Introspector) SetSize(ref platform.NodeRef, s model.Size) error {
	n, err := toNode(ref)
	if err != nil {
		return err
	}
	rc := int(C.ax_set_size(n.el, C.double(s.W), C.double(s.H)))
	runtime.KeepAlive(n)
	if rc != 0 {
		return fmt.Errorf("set size (AXError %d): %w", rc, platform.ErrMutationFailed)
	}
	return nil
}

func toNode(ref platform.NodeRef) (*node, error) {
	n, ok := ref.(*node)
	if !ok {
		return nil, fmt.Errorf("foreign node ref %T", ref)
	}
	return n, nil
}

// axError maps an AXError to the engine's sentinel errors.
func axError(op string, code int) error {
	switch code {
	case axErrAPIDisabled:
		return fmt.Errorf("%s (AXError %d): %w", op, code, platform.ErrPermissionDenied)
	case axErrAttributeUnsupported, axErrNoValue, axErrNotImplemented:
		return fmt.Errorf("%s (AXError %d): %w", op, code, platform.ErrAttributeUnavailable)
	default:
		return fmt.Errorf("%s failed (AXError %d)", op, code)
	}
}
