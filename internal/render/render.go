// Package render draws the menu and flash windows from a declarative view
// model (spec §2, the external Renderer collaborator). It never touches
// SelectionList or ProtocolEngine directly; InteractionController hands it
// plain data and reads back pixel geometry to turn a click into a row index.
package render

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/sgerwk/multiselect/internal/x11"
)

// Layout constants for the menu window. Rows are indexed top to bottom;
// row 0 is the icon bar (the "V" capture icon and the "X" close icon).
const (
	RowHeight   = 18
	PaddingX    = 6
	PaddingY    = 4
	CharWidth   = 7
	IconBarRows = 1
	MinWidth    = 160
)

const (
	colorBackground = 0x1f2933
	colorForeground = 0xf5f7fa
	colorHighlightBg = 0x3498db
	colorHighlightFg = 0xffffff
	colorIconBar    = 0x2b3a42
)

var fontCandidates = []string{"fixed", "9x15", "8x13", "6x13"}

// MenuView is the declarative state of the menu window at one point in
// time: the display strings (spec §4.1, Entry.Raw) and which one, if any,
// currently has the cursor.
type MenuView struct {
	Entries []string
	Cursor  int // -1 = none
}

// FlashView is the declarative state of the flash confirmation window
// (spec §4.3).
type FlashView struct {
	Message string
}

type windowResources struct {
	window  xproto.Window
	gc      xproto.Gcontext
	font    xproto.Font
	created bool
	mapped  bool
	width   uint16
	height  uint16
}

// Renderer owns the menu and flash override-redirect windows and draws
// them from the view models InteractionController supplies.
type Renderer struct {
	conn   *x11.Conn
	logger *slog.Logger

	menu  windowResources
	flash windowResources
}

// New creates a Renderer bound to conn. Windows are created lazily on
// first draw.
func New(conn *x11.Conn, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{conn: conn, logger: logger}
}

// MenuWindow returns the menu window id, creating it if necessary. The
// controller needs this to select input focus and grab the pointer
// against it.
func (r *Renderer) MenuWindow() (xproto.Window, error) {
	if err := r.ensure(&r.menu); err != nil {
		return 0, err
	}
	return r.menu.window, nil
}

// FlashWindow returns the flash window id, creating it if necessary.
func (r *Renderer) FlashWindow() (xproto.Window, error) {
	if err := r.ensure(&r.flash); err != nil {
		return 0, err
	}
	return r.flash.window, nil
}

func (r *Renderer) ensure(res *windowResources) error {
	if res.created {
		return nil
	}

	win, err := r.conn.CreateOverlay(x11.WindowGeometry{X: 0, Y: 0, Width: 1, Height: 1}, colorBackground,
		uint32(xproto.EventMaskExposure|xproto.EventMaskButtonPress|xproto.EventMaskKeyPress|xproto.EventMaskPropertyChange))
	if err != nil {
		return fmt.Errorf("creating render window: %w", err)
	}

	font, gc, err := r.openFontAndGC(win)
	if err != nil {
		r.conn.Destroy(win)
		return err
	}

	res.window = win
	res.font = font
	res.gc = gc
	res.created = true
	return nil
}

func (r *Renderer) openFontAndGC(win xproto.Window) (xproto.Font, xproto.Gcontext, error) {
	conn := r.conn.XUtil.Conn()

	font, err := xproto.NewFontId(conn)
	if err != nil {
		return 0, 0, fmt.Errorf("allocating font id: %w", err)
	}
	opened := false
	for _, name := range fontCandidates {
		if err = xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check(); err == nil {
			opened = true
			break
		}
	}
	if !opened {
		return 0, 0, fmt.Errorf("opening a fallback font: %w", err)
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		xproto.CloseFont(conn, font)
		return 0, 0, fmt.Errorf("allocating graphics context id: %w", err)
	}
	err = xproto.CreateGCChecked(
		conn, gc, xproto.Drawable(win),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
		[]uint32{colorForeground, colorBackground, uint32(font), 0},
	).Check()
	if err != nil {
		xproto.CloseFont(conn, font)
		return 0, 0, fmt.Errorf("creating graphics context: %w", err)
	}
	return font, gc, nil
}

// menuGeometry computes the window geometry for a given entry count,
// wide enough for the longest display string.
func menuGeometry(entries []string) (width, height uint16) {
	maxChars := 24 // room for the icon bar legend
	for _, e := range entries {
		if len(e) > maxChars {
			maxChars = len(e)
		}
	}
	w := maxChars*CharWidth + 2*PaddingX
	if w < MinWidth {
		w = MinWidth
	}
	h := (len(entries) + IconBarRows) * RowHeight
	return uint16(w), uint16(h)
}

// RowAt maps a click's y coordinate (window-relative) to an entry index,
// or -1 if the click landed in the icon bar or past the last row.
func RowAt(y int16, entryCount int) int {
	row := int(y)/RowHeight - IconBarRows
	if row < 0 || row >= entryCount {
		return -1
	}
	return row
}

// IconAt maps a click's x coordinate in the icon bar row to "capture",
// "close" or "" (neither icon).
func IconAt(x int16, windowWidth uint16) string {
	if x < 24 {
		return "capture"
	}
	if int(x) > int(windowWidth)-24 {
		return "close"
	}
	return ""
}

// DrawMenu repositions (if the entry count changed the geometry) and
// redraws the menu window for vm, near the pointer position (px, py).
func (r *Renderer) DrawMenu(vm MenuView, px, py int16) error {
	if err := r.ensure(&r.menu); err != nil {
		return err
	}
	width, height := menuGeometry(vm.Entries)
	if width != r.menu.width || height != r.menu.height {
		if err := r.conn.Reposition(r.menu.window, x11.WindowGeometry{X: px, Y: py, Width: width, Height: height}); err != nil {
			return fmt.Errorf("resizing menu window: %w", err)
		}
		r.menu.width, r.menu.height = width, height
	}

	conn := r.conn.XUtil.Conn()
	xproto.ClearArea(conn, false, r.menu.window, 0, 0, 0, 0)

	r.drawIconBar(width)
	for i, entry := range vm.Entries {
		y := int16((i + IconBarRows) * RowHeight)
		var bg, fg uint32 = colorBackground, colorForeground
		if i == vm.Cursor {
			bg, fg = colorHighlightBg, colorHighlightFg
		}
		r.fillRow(r.menu, y, width, bg)
		r.drawText(r.menu, entry, PaddingX, y+RowHeight-5, fg, bg)
	}
	return nil
}

func (r *Renderer) drawIconBar(width uint16) {
	r.fillRow(r.menu, 0, width, colorIconBar)
	r.drawText(r.menu, "[v] capture   [x] close", PaddingX, RowHeight-5, colorForeground, colorIconBar)
}

func (r *Renderer) fillRow(res windowResources, y int16, width uint16, color uint32) {
	conn := r.conn.XUtil.Conn()
	xproto.ChangeGC(conn, res.gc, xproto.GcForeground, []uint32{color})
	xproto.PolyFillRectangle(conn, xproto.Drawable(res.window), res.gc,
		[]xproto.Rectangle{{X: 0, Y: y, Width: width, Height: RowHeight}})
}

func (r *Renderer) drawText(res windowResources, text string, x, y int16, fg, bg uint32) {
	if len(text) > 255 {
		text = text[:255]
	}
	conn := r.conn.XUtil.Conn()
	xproto.ChangeGC(conn, res.gc, xproto.GcForeground|xproto.GcBackground, []uint32{fg, bg})
	xproto.ImageText8(conn, byte(len(text)), xproto.Drawable(res.window), res.gc, x, y, text)
}

// MapMenu maps the menu window at (x, y) and raises it.
func (r *Renderer) MapMenu(x, y int16) error {
	if err := r.ensure(&r.menu); err != nil {
		return err
	}
	geom := x11.WindowGeometry{X: x, Y: y, Width: r.menu.width, Height: r.menu.height}
	if geom.Width == 0 {
		geom.Width, geom.Height = MinWidth, RowHeight*IconBarRows
	}
	if err := r.conn.Reposition(r.menu.window, geom); err != nil {
		return fmt.Errorf("positioning menu window: %w", err)
	}
	if err := r.conn.Map(r.menu.window); err != nil {
		return fmt.Errorf("mapping menu window: %w", err)
	}
	r.menu.mapped = true
	return nil
}

// UnmapMenu hides the menu window.
func (r *Renderer) UnmapMenu() error {
	if !r.menu.created || !r.menu.mapped {
		return nil
	}
	r.menu.mapped = false
	return r.conn.Unmap(r.menu.window)
}

// MenuMapped reports whether the menu is currently mapped.
func (r *Renderer) MenuMapped() bool {
	return r.menu.mapped
}

// DrawFlash redraws the flash window for a short confirmation message
// (spec §4.3).
func (r *Renderer) DrawFlash(vm FlashView) error {
	if err := r.ensure(&r.flash); err != nil {
		return err
	}
	width := uint16(len(vm.Message)*CharWidth + 2*PaddingX)
	if width < MinWidth {
		width = MinWidth
	}
	height := uint16(RowHeight + 2*PaddingY)
	r.flash.width, r.flash.height = width, height

	conn := r.conn.XUtil.Conn()
	xproto.ClearArea(conn, false, r.flash.window, 0, 0, 0, 0)
	r.fillRow(r.flash, 0, height, colorBackground)
	r.drawText(r.flash, vm.Message, PaddingX, PaddingY+RowHeight-5, colorForeground, colorBackground)
	return nil
}

// MapFlash maps the flash window at (x, y) sized to the last DrawFlash call.
func (r *Renderer) MapFlash(x, y int16) error {
	if err := r.ensure(&r.flash); err != nil {
		return err
	}
	geom := x11.WindowGeometry{X: x, Y: y, Width: r.flash.width, Height: r.flash.height}
	if geom.Width == 0 {
		geom.Width, geom.Height = MinWidth, RowHeight
	}
	if err := r.conn.Reposition(r.flash.window, geom); err != nil {
		return fmt.Errorf("positioning flash window: %w", err)
	}
	if err := r.conn.Map(r.flash.window); err != nil {
		return fmt.Errorf("mapping flash window: %w", err)
	}
	r.flash.mapped = true
	return nil
}

// UnmapFlash hides the flash window.
func (r *Renderer) UnmapFlash() error {
	if !r.flash.created || !r.flash.mapped {
		return nil
	}
	r.flash.mapped = false
	return r.conn.Unmap(r.flash.window)
}

// MenuSize returns the current menu window's pixel geometry, for mouse
// hit-testing (RowAt/IconAt).
func (r *Renderer) MenuSize() (width, height uint16) {
	return r.menu.width, r.menu.height
}

// Close destroys both windows and frees their graphics resources.
func (r *Renderer) Close() {
	r.destroy(&r.menu)
	r.destroy(&r.flash)
}

func (r *Renderer) destroy(res *windowResources) {
	if !res.created {
		return
	}
	conn := r.conn.XUtil.Conn()
	xproto.FreeGC(conn, res.gc)
	xproto.CloseFont(conn, res.font)
	r.conn.Destroy(res.window)
	*res = windowResources{}
}
