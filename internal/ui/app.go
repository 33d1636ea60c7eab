package ui

import (
	"context"
	"fmt"
	"image"
	"time"

	"geocam/internal/config"
	"geocam/internal/geo"
	"geocam/internal/models"
	"geocam/internal/state"
	"geocam/internal/ui/cwidget"
	"geocam/processing/capture"
	"geocam/processing/location"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	withinText  = "Within 3 km radius of target coordinate"
	outsideText = "Outside 3 km radius of target coordinate"
)

type GeoCamApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	config    *config.Config
	camera    *capture.Controller
	evaluator *location.Evaluator
	store     *state.Store
	policy    geo.RangePolicy

	videoCanvas    *canvas.Image
	capturedCanvas *canvas.Image
	capturedID     uuid.UUID

	fpsLabel      *widget.Label
	statusLabel   *widget.Label
	coordsLabel   *widget.Label
	verdictLabel  *widget.Label
	distanceLabel *widget.Label
	errorLabel    *widget.Label

	startButton   *widget.Button
	captureButton *widget.Button
	deviceSelect  *widget.Select
	targetInput   *cwidget.Input[models.Coordinate]

	stopChan    chan struct{}
	unsubscribe func()
}

func CreateApp(cam *capture.Controller, ev *location.Evaluator, st *state.Store, cfg *config.Config, policy geo.RangePolicy) *GeoCamApp {
	return newApp(app.NewWithID("io.geocam"), cam, ev, st, cfg, policy)
}

func newApp(a fyne.App, cam *capture.Controller, ev *location.Evaluator, st *state.Store, cfg *config.Config, policy geo.RangePolicy) *GeoCamApp {
	w := a.NewWindow("Camera with Coordinate Detection")
	w.Resize(fyne.NewSize(1100, 720))

	g := &GeoCamApp{
		fyneApp:   a,
		mainWin:   w,
		config:    cfg,
		camera:    cam,
		evaluator: ev,
		store:     st,
		policy:    policy,
		stopChan:  make(chan struct{}),
	}

	w.SetContent(g.build())

	return g
}

func (a *GeoCamApp) build() fyne.CanvasObject {
	a.videoCanvas = canvas.NewImageFromImage(nil)
	a.videoCanvas.FillMode = canvas.ImageFillContain
	a.videoCanvas.SetMinSize(fyne.NewSize(320, 240))

	a.capturedCanvas = canvas.NewImageFromImage(nil)
	a.capturedCanvas.FillMode = canvas.ImageFillContain
	a.capturedCanvas.SetMinSize(fyne.NewSize(320, 240))
	a.capturedCanvas.Hide()

	a.fpsLabel = widget.NewLabel(a.formatFPS(0))
	a.statusLabel = widget.NewLabel("")
	a.coordsLabel = widget.NewLabel("")
	a.verdictLabel = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	a.distanceLabel = widget.NewLabel("")

	a.errorLabel = widget.NewLabel("")
	a.errorLabel.Wrapping = fyne.TextWrapWord
	a.errorLabel.Importance = widget.DangerImportance

	a.startButton = widget.NewButtonWithIcon("Start Camera", theme.MediaPlayIcon(), a.startCamera)
	a.captureButton = widget.NewButtonWithIcon("Take Picture", theme.MediaPhotoIcon(), a.takePicture)
	a.captureButton.Importance = widget.HighImportance

	a.targetInput = cwidget.NewCoordinateInput(
		"Paste Target Coordinate (latitude,longitude)",
		"e.g. 37.7749,-122.4194",
		a.policy,
		a.setTarget,
	)
	a.targetInput.SetText(a.store.Snapshot().Target)

	sidebar := container.NewVBox(
		widget.NewLabelWithStyle("Camera", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		a.cameraSettings(),
		widget.NewSeparator(),
		container.NewGridWithColumns(2, a.startButton, a.captureButton),
		a.statusLabel,
		widget.NewSeparator(),
		a.targetInput,
	)

	results := container.NewVBox(
		widget.NewLabelWithStyle("Captured Image:", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		a.capturedCanvas,
		a.coordsLabel,
		a.verdictLabel,
		a.distanceLabel,
		a.errorLabel,
	)

	videoContainer := container.NewBorder(
		a.fpsLabel,
		nil, nil, nil,
		a.videoCanvas,
	)

	content := container.NewVSplit(videoContainer, container.NewVScroll(results))
	content.SetOffset(0.55)

	split := container.NewHSplit(
		container.NewPadded(sidebar),
		container.NewPadded(content),
	)
	split.SetOffset(0.3)

	a.render(a.store.Snapshot())

	return split
}

func (a *GeoCamApp) cameraSettings() fyne.CanvasObject {
	settings := container.NewVBox()
	camera := a.config.CameraSnapshot()

	switch camera.Source {
	case config.CameraFile:
		settings.Add(widget.NewLabel("Video file:"))
		settings.Add(widget.NewLabel(camera.FilePath))

	default:
		a.deviceSelect = widget.NewSelect([]string{"Loading cameras..."}, func(s string) {
			if s != "Loading cameras..." && s != "No cameras found" {
				a.config.SetDevice(s)
			}
		})
		a.deviceSelect.SetSelected("Loading cameras...")
		a.deviceSelect.Disable()

		settings.Add(widget.NewLabel("Select Camera:"))
		settings.Add(a.deviceSelect)
	}

	settings.Add(cwidget.NewIntInput("FPS", "Enter integer", int(camera.FPS), func(i int) {
		a.config.SetFPS(uint(i))
	}))

	return settings
}

func (a *GeoCamApp) loadCameras() {
	devices, err := capture.ListCameras()

	fyne.Do(func() {
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("listing cameras failed")
			a.deviceSelect.Options = []string{"No cameras found"}
			a.deviceSelect.SetSelected("No cameras found")
		case len(devices) == 0:
			a.deviceSelect.Options = []string{"No cameras found"}
			a.deviceSelect.SetSelected("No cameras found")
		default:
			a.deviceSelect.Options = devices
			a.deviceSelect.Enable()

			current := a.config.GetDevice()
			selected := devices[0]
			for _, d := range devices {
				if d == current {
					selected = d
				}
			}
			a.deviceSelect.SetSelected(selected)
		}
		a.deviceSelect.Refresh()
	})
}

func (a *GeoCamApp) Run() {
	a.unsubscribe = a.store.Subscribe(func(s state.State) {
		fyne.Do(func() { a.render(s) })
	})

	if a.deviceSelect != nil {
		go a.loadCameras()
	}

	go a.runPlayerLoop()
	go a.runStatLoop()
	go a.watchStreamErrors()

	a.mainWin.SetCloseIntercept(a.shutdown)

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()
}

func (a *GeoCamApp) shutdown() {
	select {
	case <-a.stopChan:
	default:
		close(a.stopChan)
	}

	if a.unsubscribe != nil {
		a.unsubscribe()
	}

	a.camera.Close()

	if err := a.config.SaveByDefault(); err != nil {
		log.Warn().Err(err).Str("path", a.config.Path()).Msg("saving config failed")
	}

	a.mainWin.Close()
}

func (a *GeoCamApp) startCamera() {
	a.startButton.Disable()
	a.statusLabel.SetText("Starting camera...")

	go func() {
		err := a.camera.StartCapture(context.Background())
		if err != nil {
			log.Error().Err(err).Str("device", a.config.GetDevice()).Msg("camera start failed")
			a.store.Dispatch(state.CameraFailed(err))
		} else {
			a.store.Dispatch(state.CameraStarted())
		}

		fyne.Do(func() {
			a.startButton.Enable()
			a.statusLabel.SetText("")
		})
	}()
}

// takePicture shows the frame immediately and resolves the position in the
// background; the verdict follows when the fix arrives.
func (a *GeoCamApp) takePicture() {
	img, err := a.camera.CaptureFrame()
	if err != nil {
		log.Warn().Err(err).Msg("capture failed")
		a.store.Dispatch(state.CaptureFailed(err))
		return
	}

	a.store.Dispatch(state.FrameCaptured(img))
	a.store.Dispatch(state.FixRequested())

	go func() {
		pos, err := a.evaluator.RequestFix(context.Background())
		if err != nil {
			log.Warn().Err(err).Str("capture_id", img.ID.String()).Msg("position fix failed")
			a.store.Dispatch(state.FixFailed(err))
			return
		}
		a.store.Dispatch(state.FixResolved(pos))
	}()
}

// setTarget keeps the typed target in the session state only.
func (a *GeoCamApp) setTarget(text string) {
	a.store.Dispatch(state.TargetChanged(text))
}

func (a *GeoCamApp) watchStreamErrors() {
	for {
		select {
		case err := <-a.camera.Errors():
			a.store.Dispatch(state.CameraFailed(err))
		case <-a.stopChan:
			return
		}
	}
}

// render derives the whole result view from s.
func (a *GeoCamApp) render(s state.State) {
	a.renderImage(s.Image)

	if s.Locating {
		a.statusLabel.SetText("Getting location...")
	} else if a.statusLabel.Text == "Getting location..." {
		a.statusLabel.SetText("")
	}

	if s.Position != nil {
		a.coordsLabel.SetText("Current Coordinates: " + s.Position.String())
		a.coordsLabel.Show()
	} else {
		a.coordsLabel.Hide()
	}

	if s.Verdict.Known() {
		if s.Verdict.Within() {
			a.verdictLabel.SetText(withinText)
			a.verdictLabel.Importance = widget.SuccessImportance
		} else {
			a.verdictLabel.SetText(outsideText)
			a.verdictLabel.Importance = widget.DangerImportance
		}
		a.verdictLabel.Show()
		a.verdictLabel.Refresh()

		a.distanceLabel.SetText(fmt.Sprintf("Distance to target: %.3f km", s.DistanceKm))
		a.distanceLabel.Show()
	} else {
		a.verdictLabel.Hide()
		a.distanceLabel.Hide()
	}

	if s.Err != nil {
		a.errorLabel.SetText("Error: " + s.Err.Error())
		a.errorLabel.Show()
	} else {
		a.errorLabel.Hide()
	}
}

func (a *GeoCamApp) renderImage(ci *models.CapturedImage) {
	if ci == nil {
		a.capturedCanvas.Image = nil
		a.capturedCanvas.Hide()
		a.capturedID = uuid.Nil
		return
	}

	if ci.ID == a.capturedID && a.capturedCanvas.Image != nil {
		return
	}

	img, err := ci.Decode()
	if err != nil {
		log.Error().Err(err).Str("capture_id", ci.ID.String()).Msg("decoding captured image failed")
		return
	}

	a.capturedID = ci.ID
	a.capturedCanvas.Image = img
	a.capturedCanvas.Show()
	a.capturedCanvas.Refresh()
}

func (a *GeoCamApp) runStatLoop() {
	uiTicker := time.NewTicker(time.Millisecond * 200)
	defer uiTicker.Stop()

	for {
		select {
		case <-uiTicker.C:
			fps := a.camera.FPS()
			fyne.Do(func() {
				a.fpsLabel.SetText(a.formatFPS(fps))
			})
		case <-a.stopChan:
			return
		}
	}
}

func (a *GeoCamApp) formatFPS(v uint) string {
	return fmt.Sprintf("FPS: %d", v)
}

func (a *GeoCamApp) runPlayerLoop() {
	displayFPS := a.config.GetFPS()
	if displayFPS == 0 {
		displayFPS = 30
	}
	displayTicker := time.NewTicker(time.Second / time.Duration(displayFPS))
	defer displayTicker.Stop()

	var lastFrame, shown image.Image

	for {
		select {
		case frame := <-a.camera.Preview():
			if frame != nil {
				lastFrame = frame
			}

		case <-displayTicker.C:
			if lastFrame != nil && lastFrame != shown {
				frame := lastFrame
				shown = frame
				fyne.Do(func() {
					a.videoCanvas.Image = frame
					a.videoCanvas.Refresh()
				})
			}

		case <-a.stopChan:
			return
		}
	}
}
