//go:build darwin && cgo

package darwin

// This file carries the Objective-C side of the event stream. It is kept
// separate from events.go because a file containing //export directives
// may not define C functions in its preamble.

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework ApplicationServices -framework CoreGraphics -framework CoreFoundation -framework Foundation
#import <AppKit/AppKit.h>
#include <ApplicationServices/ApplicationServices.h>
#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>

extern void dwGoAppActivated(int pid);
extern void dwGoScreensChanged(void);
extern void dwGoWindowCreated(int pid);

static CFRunLoopRef dw_loop = NULL;
static id dw_activation_observer = nil;

static void dw_display_cb(CGDirectDisplayID display, CGDisplayChangeSummaryFlags flags, void *userInfo) {
    // Only report completed reconfigurations; the begin flag fires before
    // geometry settles.
    if (flags & kCGDisplayBeginConfigurationFlag) {
        return;
    }
    dwGoScreensChanged();
}

static void dw_ax_window_created(AXObserverRef observer, AXUIElementRef element,
                                 CFStringRef notification, void *refcon) {
    dwGoWindowCreated((int)(intptr_t)refcon);
}

int dw_events_ready(void) {
    return dw_loop != NULL;
}

int dw_events_run(void) {
    @autoreleasepool {
        dw_loop = CFRunLoopGetCurrent();
        dw_activation_observer = [[[NSWorkspace sharedWorkspace] notificationCenter]
            addObserverForName:NSWorkspaceDidActivateApplicationNotification
                        object:nil
                         queue:nil
                    usingBlock:^(NSNotification *note) {
                        NSRunningApplication *app =
                            [note userInfo][NSWorkspaceApplicationKey];
                        dwGoAppActivated(app != nil ? (int)[app processIdentifier] : 0);
                    }];
        CGDisplayRegisterReconfigurationCallback(dw_display_cb, NULL);
    }

    CFRunLoopRun();

    @autoreleasepool {
        CGDisplayRemoveReconfigurationCallback(dw_display_cb, NULL);
        if (dw_activation_observer != nil) {
            [[[NSWorkspace sharedWorkspace] notificationCenter]
                removeObserver:dw_activation_observer];
            dw_activation_observer = nil;
        }
    }
    dw_loop = NULL;
    return 0;
}

void dw_events_stop(void) {
    if (dw_loop != NULL) {
        CFRunLoopStop(dw_loop);
    }
}

// dw_observe_window_creation attaches an AXObserver for one process to the
// event run loop. The observer lives for the rest of the process; observed
// system processes (notification center) do not churn.
int dw_observe_window_creation(pid_t pid) {
    if (dw_loop == NULL) {
        return -1;
    }
    AXObserverRef observer = NULL;
    if (AXObserverCreate(pid, dw_ax_window_created, &observer) != kAXErrorSuccess) {
        return -1;
    }
    AXUIElementRef app = AXUIElementCreateApplication(pid);
    AXError err = AXObserverAddNotification(observer, app, kAXWindowCreatedNotification,
                                            (void *)(intptr_t)pid);
    CFRelease(app);
    if (err != kAXErrorSuccess) {
        CFRelease(observer);
        return (int)err;
    }
    CFRunLoopAddSource(dw_loop, AXObserverGetRunLoopSource(observer), kCFRunLoopDefaultMode);
    return 0;
}
*/
import "C"
