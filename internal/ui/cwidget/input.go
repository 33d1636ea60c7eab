package cwidget

import (
	"errors"
	"fmt"
	"strconv"

	"geocam/internal/geo"
	"geocam/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Input is a labelled entry that validates as the user types and shows the
// validation error underneath instead of interrupting them.
type Input[T any] struct {
	widget.BaseWidget

	labelWidget *widget.Label
	entryWidget *widget.Entry
	errorWidget *widget.Label

	LabelText   string
	Placeholder string

	DefaultValue T

	// AllowEmpty clears the error on empty text without calling OnChanged.
	AllowEmpty bool

	OnTextChanged func(string)
	OnChanged     func(T)

	Validator func(string) (T, error)
	Format    func(T) string
}

func newInput[T any](label, placeholder string, defaultValue T) *Input[T] {
	input := &Input[T]{
		LabelText:    label,
		Placeholder:  placeholder,
		DefaultValue: defaultValue,
	}

	input.labelWidget = widget.NewLabel(label)
	input.labelWidget.TextStyle = fyne.TextStyle{Bold: true}

	input.entryWidget = widget.NewEntry()
	input.entryWidget.SetPlaceHolder(placeholder)
	input.entryWidget.OnChanged = input.handle

	input.errorWidget = widget.NewLabel("")
	input.errorWidget.Hidden = true
	input.errorWidget.Wrapping = fyne.TextWrapWord
	input.errorWidget.TextStyle = fyne.TextStyle{Italic: true}
	input.errorWidget.Importance = widget.DangerImportance

	input.ExtendBaseWidget(input)

	return input
}

func NewIntInput(label, placeholder string, defaultValue int, onChanged func(int)) *Input[int] {
	input := newInput(label, placeholder, defaultValue)
	input.OnChanged = onChanged
	input.Format = func(v int) string { return strconv.Itoa(v) }

	input.Validator = func(s string) (res int, err error) {
		if s == "" {
			return input.DefaultValue, nil
		}

		res, err = strconv.Atoi(s)
		if err != nil {
			return input.DefaultValue, fmt.Errorf("%q is not an integer", s)
		}

		if res == 0 {
			return input.DefaultValue, errors.New("zero error")
		}

		return
	}

	input.showValue(defaultValue)

	return input
}

// NewCoordinateInput edits a "<lat>,<lon>" target. onText receives every
// edit, valid or not, so the caller keeps the raw text as its source of truth.
func NewCoordinateInput(label, placeholder string, policy geo.RangePolicy, onText func(string)) *Input[models.Coordinate] {
	input := newInput(label, placeholder, models.Coordinate{})
	input.AllowEmpty = true
	input.OnTextChanged = onText
	input.Format = models.Coordinate.String

	input.Validator = func(s string) (models.Coordinate, error) {
		return geo.ParseTarget(s, policy)
	}

	return input
}

func (item *Input[T]) handle(s string) {
	if item.OnTextChanged != nil {
		item.OnTextChanged(s)
	}

	if s == "" && item.AllowEmpty {
		item.SetError(nil)
		item.labelWidget.SetText(item.LabelText)
		return
	}

	res, err := item.Validator(s)
	item.SetError(err)

	if err == nil {
		if item.OnChanged != nil {
			item.OnChanged(res)
		}
		item.showValue(res)
	}
}

func (item *Input[T]) showValue(v T) {
	if item.Format == nil {
		return
	}
	item.labelWidget.SetText(fmt.Sprintf("%s: %s", item.LabelText, item.Format(v)))
}

func (item *Input[T]) CreateRenderer() fyne.WidgetRenderer {
	c := container.NewVBox(
		item.labelWidget,
		item.entryWidget,
		item.errorWidget,
	)

	return widget.NewSimpleRenderer(c)
}

func (item *Input[T]) SetError(err error) {
	item.errorWidget.Hidden = err == nil
	if err != nil {
		item.errorWidget.SetText(err.Error())
	}
	item.errorWidget.Refresh()
}

func (item *Input[T]) SetText(text string) {
	item.entryWidget.SetText(text)
}

func (item *Input[T]) Text() string {
	return item.entryWidget.Text
}
