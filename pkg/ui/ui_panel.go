package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	titleHeight   = 30.0
	sectionHeight = 25.0
	scrollStep    = 20.0
)

// UIWidget is an interface for all UI widgets
type UIWidget interface {
	Update()
	Draw(screen *ebiten.Image)
	GetHeight() float64
	// place moves the widget to the given top edge after scrolling
	place(top float64)
}

type sliderWidget struct{ *Slider }

func (s *sliderWidget) GetHeight() float64 { return s.H + 25 }
func (s *sliderWidget) place(top float64)  { s.Y = top + 15 }
func (s *sliderWidget) Draw(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, s.Label, int(s.X), int(s.Y)-15)
	s.Slider.Draw(screen)
}

type checkboxWidget struct{ *Checkbox }

func (c *checkboxWidget) GetHeight() float64 { return c.Size + 8 }
func (c *checkboxWidget) place(top float64)  { c.Y = top }
func (c *checkboxWidget) Draw(screen *ebiten.Image) {
	c.Checkbox.Draw(screen)
	ebitenutil.DebugPrintAt(screen, c.Label, int(c.X+c.Size+8), int(c.Y))
}

type buttonWidget struct{ *Button }

func (b *buttonWidget) GetHeight() float64 { return b.Height + 8 }
func (b *buttonWidget) place(top float64)  { b.Y = top }

// UIPanel stacks widgets in titled sections and scrolls them with the wheel.
type UIPanel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	Widgets       []UIWidget
	ScrollOffset  float64

	BGColor      color.RGBA
	BorderColor  color.RGBA
	SectionColor color.RGBA

	sections []PanelSection
}

// PanelSection groups the widgets in [StartIndex, EndIndex).
type PanelSection struct {
	Title      string
	StartIndex int
	EndIndex   int
}

func NewUIPanel(x, y, width, height float64) *UIPanel {
	return &UIPanel{
		Title:        "Flock",
		X:            x,
		Y:            y,
		Width:        width,
		Height:       height,
		BGColor:      color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor:  color.RGBA{R: 100, G: 100, B: 110, A: 255},
		SectionColor: color.RGBA{R: 60, G: 60, B: 70, A: 255},
	}
}

// AddSection opens a section; widgets added until EndSection belong to it.
func (p *UIPanel) AddSection(title string) {
	p.sections = append(p.sections, PanelSection{
		Title:      title,
		StartIndex: len(p.Widgets),
		EndIndex:   -1,
	})
}

func (p *UIPanel) EndSection() {
	if n := len(p.sections); n > 0 {
		p.sections[n-1].EndIndex = len(p.Widgets)
	}
}

func (p *UIPanel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+10, 0, p.Width-20, label, min, max, value)
	p.add(&sliderWidget{s})
	return s
}

func (p *UIPanel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+10, 0, label, value)
	p.add(&checkboxWidget{c})
	return c
}

func (p *UIPanel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+10, 0, p.Width-20, 24, label, onClick)
	p.add(&buttonWidget{b})
	return b
}

func (p *UIPanel) add(w UIWidget) {
	p.Widgets = append(p.Widgets, w)
	p.layout()
}

// layout assigns every widget its scrolled position and returns the content height.
func (p *UIPanel) layout() float64 {
	y := p.Y + titleHeight - p.ScrollOffset
	next := 0
	for _, sec := range p.sections {
		for ; next < sec.StartIndex && next < len(p.Widgets); next++ {
			p.Widgets[next].place(y)
			y += p.Widgets[next].GetHeight()
		}
		y += sectionHeight
		end := sec.EndIndex
		if end < 0 || end > len(p.Widgets) {
			end = len(p.Widgets)
		}
		for ; next < end; next++ {
			p.Widgets[next].place(y)
			y += p.Widgets[next].GetHeight()
		}
	}
	for ; next < len(p.Widgets); next++ {
		p.Widgets[next].place(y)
		y += p.Widgets[next].GetHeight()
	}
	return y + p.ScrollOffset - p.Y
}

func (p *UIPanel) visible(top, h float64) bool {
	return top >= p.Y+titleHeight-5 && top+h <= p.Y+p.Height
}

// Update handles the scroll wheel and input for all visible widgets.
func (p *UIPanel) Update() {
	if _, dy := ebiten.Wheel(); dy != 0 {
		p.ScrollOffset -= dy * scrollStep
		maxScroll := p.layout() - p.Height + 10
		if p.ScrollOffset > maxScroll {
			p.ScrollOffset = maxScroll
		}
		if p.ScrollOffset < 0 {
			p.ScrollOffset = 0
		}
	}
	p.layout()
	for _, w := range p.Widgets {
		if p.visible(widgetTop(w), w.GetHeight()) {
			w.Update()
		}
	}
}

func (p *UIPanel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	p.layout()
	for _, sec := range p.sections {
		top := p.Y + titleHeight - p.ScrollOffset
		if sec.StartIndex < len(p.Widgets) {
			top = widgetTop(p.Widgets[sec.StartIndex]) - sectionHeight
		} else if len(p.Widgets) > 0 {
			last := p.Widgets[len(p.Widgets)-1]
			top = widgetTop(last) + last.GetHeight()
		}
		if p.visible(top, 20) {
			vector.FillRect(screen, float32(p.X+5), float32(top), float32(p.Width-10), 20, p.SectionColor, true)
			ebitenutil.DebugPrintAt(screen, sec.Title, int(p.X+10), int(top+3))
		}
	}
	for _, w := range p.Widgets {
		if p.visible(widgetTop(w), w.GetHeight()) {
			w.Draw(screen)
		}
	}
}

func widgetTop(w UIWidget) float64 {
	switch w := w.(type) {
	case *sliderWidget:
		return w.Y - 15
	case *checkboxWidget:
		return w.Y
	case *buttonWidget:
		return w.Y
	}
	return 0
}
