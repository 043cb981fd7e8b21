package emote

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/hajimehoshi/bitmapfont/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// bitmapfont glyph advance, used for label width estimates.
const glyphWidth = 6

var labelColor = color.RGBA{255, 255, 255, 255}
var labelSrc = image.NewUniform(labelColor)

// drawFrame composes the current frame: emotion animation, then overlays.
// The QR overlay supersedes the eye animation's visibility but not the
// emotion state itself. Caller holds the engine lock.
func drawFrame(dst *image.RGBA, e *Engine) {
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)

	qr := e.objects["qr_code"]
	qrActive := qr.Visible() && e.qrImage != nil

	if frames := e.assets[e.emotion]; len(frames) > 0 {
		frame := frames[e.frameTick%len(frames)]
		offset := image.Pt(
			(bounds.Dx()-frame.Bounds().Dx())/2,
			(bounds.Dy()-frame.Bounds().Dy())/2)
		draw.Draw(dst, frame.Bounds().Add(offset), frame, frame.Bounds().Min, draw.Over)
	} else if e.objects["eye_anim"].Visible() && !qrActive {
		drawFace(dst, e.emotion, e.frameTick, e.gazeOffset())
	}

	if qrActive {
		qrBounds := e.qrImage.Bounds()
		offset := image.Pt(
			(bounds.Dx()-qrBounds.Dx())/2,
			(bounds.Dy()-qrBounds.Dy())/2)
		draw.Draw(dst, qrBounds.Add(offset), e.qrImage, qrBounds.Min, draw.Over)
	}

	drawLabelObject(dst, e.objects["toast_label"], 14)
	drawLabelObject(dst, e.objects["speech_label"], bounds.Dy()-6)
}

// drawLabelObject renders a label at its configured position, honoring
// alignment and the scroll long-mode for text wider than the surface.
func drawLabelObject(dst *image.RGBA, o *Object, defaultY int) {
	if !o.Visible() {
		return
	}
	text := o.Text()
	if text == "" {
		return
	}

	bounds := dst.Bounds()
	width := len(text) * glyphWidth
	_, y := o.Pos()
	if y == 0 {
		y = defaultY
	}

	o.lock.Lock()
	align, dy := o.align, o.alignDy
	longMode := o.longMode
	o.lock.Unlock()

	x := 0
	switch align {
	case ALIGN_TOP_MID, ALIGN_BOTTOM_MID, ALIGN_CENTER:
		x = (bounds.Dx() - width) / 2
		if dy != 0 {
			y = dy
		}
	}

	if longMode == LONG_SCROLL && width > bounds.Dx() {
		period := width + 20
		offset := o.advanceScroll(period)
		addLabel(dst, 10-offset, y, text)
		addLabel(dst, period+10-offset, y, text)
		return
	}
	if x < 0 {
		x = 0
	}
	addLabel(dst, x, y, text)
}

func addLabel(img *image.RGBA, x, y int, label string) {
	point := fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}

	d := &font.Drawer{
		Dst:  img,
		Src:  labelSrc,
		Face: bitmapfont.Face,
		Dot:  point,
	}
	d.DrawString(label)
}

// drawFace is the procedural fallback when no animation assets are loaded:
// two eyes and a mouth, shaped by the current emotion, with a periodic
// blink. gaze shifts the eyes horizontally toward a recent touch.
func drawFace(dst *image.RGBA, emotion string, tick int, gaze int) {
	bounds := dst.Bounds()
	cx, cy := bounds.Dx()/2, bounds.Dy()/2
	eyeW, eyeH := bounds.Dx()/10, bounds.Dy()/8
	gap := bounds.Dx() / 5

	blink := tick%90 < 4
	leftClosed := blink || emotion == "sleepy"
	rightClosed := leftClosed || emotion == "winking"

	drawEye(dst, cx-gap+gaze, cy-eyeH, eyeW, eyeH, leftClosed)
	drawEye(dst, cx+gap-eyeW+gaze, cy-eyeH, eyeW, eyeH, rightClosed)

	mouthW := bounds.Dx() / 4
	mouthY := cy + bounds.Dy()/5
	switch emotion {
	case "happy", "winking":
		fillRect(dst, cx-mouthW/2, mouthY, mouthW, 3)
		fillRect(dst, cx-mouthW/2-3, mouthY-3, 3, 3)
		fillRect(dst, cx+mouthW/2, mouthY-3, 3, 3)
	case "sad", "crying":
		fillRect(dst, cx-mouthW/2, mouthY, mouthW, 3)
		fillRect(dst, cx-mouthW/2-3, mouthY+3, 3, 3)
		fillRect(dst, cx+mouthW/2, mouthY+3, 3, 3)
	case "angry":
		fillRect(dst, cx-mouthW/2, mouthY, mouthW, 6)
	case "shocked", "confused":
		fillRect(dst, cx-4, mouthY-4, 8, 8)
	default:
		fillRect(dst, cx-mouthW/2, mouthY, mouthW, 2)
	}
}

func drawEye(dst *image.RGBA, x, y, w, h int, closed bool) {
	if closed {
		fillRect(dst, x, y+h-2, w, 2)
		return
	}
	fillRect(dst, x, y, w, h)
}

func fillRect(dst *image.RGBA, x, y, w, h int) {
	draw.Draw(dst, image.Rect(x, y, x+w, y+h), labelSrc, image.Point{}, draw.Src)
}
