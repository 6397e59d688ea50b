package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mgpai22/whisperburn/internal/config"
	"github.com/mgpai22/whisperburn/internal/pipeline"
	"github.com/mgpai22/whisperburn/internal/subtitle"
	"github.com/mgpai22/whisperburn/internal/transcribe"
	"github.com/mgpai22/whisperburn/internal/translate"
)

const stageTranslate pipeline.Stage = "translate"

func (s *Server) handleIndex(c *gin.Context) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

type colorInfo struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type statusResponse struct {
	Device       string             `json:"device"`
	Colors       []colorInfo        `json:"colors"`
	Models       []transcribe.Model `json:"models"`
	DefaultModel string             `json:"default_model"`
	Style        styleInfo          `json:"style"`
	Sessions     int                `json:"sessions"`
}

type styleInfo struct {
	FontSize     int    `json:"font_size"`
	TextColor    string `json:"text_color"`
	OutlineColor string `json:"outline_color"`
	OutlineWidth int    `json:"outline_width"`
	MarginBottom int    `json:"margin_bottom"`
	MarginSide   int    `json:"margin_side"`
}

func (s *Server) handleStatus(c *gin.Context) {
	colors := make([]colorInfo, 0, len(subtitle.ColorNames()))
	for _, name := range subtitle.ColorNames() {
		colors = append(colors, colorInfo{Name: name, Value: string(subtitle.LookupColor(name, ""))})
	}

	def := subtitle.DefaultStyle()
	textName, _ := subtitle.ColorName(def.TextColor)
	outlineName, _ := subtitle.ColorName(def.OutlineColor)

	defaultModel := s.opts.DefaultModel
	if defaultModel == "" {
		defaultModel = transcribe.DefaultModel
	}

	c.JSON(http.StatusOK, statusResponse{
		Device:       s.opts.DeviceStatus,
		Colors:       colors,
		Models:       transcribe.Models(),
		DefaultModel: defaultModel,
		Style: styleInfo{
			FontSize:     def.FontSize,
			TextColor:    textName,
			OutlineColor: outlineName,
			OutlineWidth: def.OutlineWidth,
			MarginBottom: def.MarginBottom,
			MarginSide:   def.MarginSide,
		},
		Sessions: s.sessions.len(),
	})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess := s.sessions.create()
	s.log.Infow("session created", "session", sess.id)
	c.JSON(http.StatusCreated, gin.H{"id": sess.id})
}

// lookup resolves :id and marks the session busy; the release func must be
// called when the handler is done.
func (s *Server) lookup(c *gin.Context) (*session, func(), bool) {
	sess, err := s.sessions.get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return nil, nil, false
	}
	if err := sess.acquire(); err != nil {
		s.respondError(c, err)
		return nil, nil, false
	}
	return sess, sess.release, true
}

type generateForm struct {
	Path     string   `form:"path" json:"path"`
	Start    string   `form:"start" json:"start"`
	End      string   `form:"end" json:"end"`
	Model    string   `form:"model" json:"model"`
	Offset   *float64 `form:"offset" json:"offset"`
	Device   string   `form:"device" json:"device"`
	Language string   `form:"language" json:"language"`
}

type generateResponse struct {
	ID       string `json:"id"`
	Clip     string `json:"clip"`
	Document string `json:"document"`
	Language string `json:"language,omitempty"`
	Lines    int    `json:"lines"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	sess, release, ok := s.lookup(c)
	if !ok {
		return
	}
	defer release()

	var form generateForm
	if err := c.ShouldBind(&form); err != nil {
		s.respondError(c, badRequest("invalid request: %v", err))
		return
	}

	source := strings.TrimSpace(form.Path)
	if upload, err := c.FormFile("video"); err == nil {
		source, err = s.saveUpload(c, upload.Filename, func(dst string) error {
			return c.SaveUploadedFile(upload, dst)
		})
		if err != nil {
			s.respondError(c, err)
			return
		}
	}
	if source == "" {
		s.respondError(c, badRequest("upload a video or give a path"))
		return
	}

	req, err := s.generateRequest(source, form)
	if err != nil {
		s.respondError(c, err)
		return
	}

	log := s.log.With("session", sess.id)
	log.Infow("generate requested", "source", source, "start", req.Start, "end", req.End, "model", req.Transcriber.Model)

	gen, err := s.opts.Pipeline.Generate(c.Request.Context(), req, sess.progress("generate"))
	if err != nil {
		sess.publish(ProgressEvent{Stage: "error", Fraction: 1, Status: err.Error()})
		s.respondError(c, err)
		return
	}
	sess.replaceGeneration(gen)

	c.JSON(http.StatusOK, generateResponse{
		ID:       gen.ID,
		Clip:     gen.Clip,
		Document: gen.Document.String(),
		Language: gen.Language,
		Lines:    len(gen.Document.DialogueLines()),
	})
}

func (s *Server) generateRequest(source string, form generateForm) (pipeline.GenerateRequest, error) {
	start, end, err := pipeline.ParseRange(form.Start, form.End)
	if err != nil {
		return pipeline.GenerateRequest{}, badRequest("%v", err)
	}

	device, err := transcribe.ParseDevice(form.Device)
	if err != nil {
		return pipeline.GenerateRequest{}, badRequest("%v", err)
	}

	offset := s.opts.DefaultOffset
	if form.Offset != nil {
		offset = *form.Offset
	}
	if offset < -config.MaxSyncOffset || offset > config.MaxSyncOffset {
		return pipeline.GenerateRequest{}, badRequest("offset %.2f outside [-%.1f, %.1f]", offset, config.MaxSyncOffset, config.MaxSyncOffset)
	}

	model := s.opts.DefaultModel
	if strings.TrimSpace(form.Model) != "" {
		model = transcribe.CleanModelName(form.Model)
	}

	return pipeline.GenerateRequest{
		Source:     source,
		Start:      start,
		End:        end,
		SyncOffset: subtitle.SecondsToDuration(offset),
		Transcriber: pipeline.TranscriberSettings{
			Model:    model,
			Device:   device,
			Language: form.Language,
		},
	}, nil
}

// saveUpload stores an uploaded video under <output>/uploads with a unique
// name and returns its path.
func (s *Server) saveUpload(c *gin.Context, filename string, save func(dst string) error) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	dst := filepath.Join(s.opts.Pipeline.OutputDir(), "uploads",
		uuid.NewString()[:8]+"_"+pipeline.SanitizeStem(filename)+ext)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	if err := save(dst); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	s.log.Debugw("upload saved", "session", c.Param("id"), "path", dst)
	return dst, nil
}

type burnForm struct {
	Document     string `json:"document"`
	TextColor    string `json:"text_color"`
	OutlineColor string `json:"outline_color"`
	FontSize     *int   `json:"font_size"`
	OutlineWidth *int   `json:"outline_width"`
	MarginBottom *int   `json:"margin_bottom"`
	MarginSide   *int   `json:"margin_side"`
}

// style starts from the defaults and applies whatever the form sets.
func (f burnForm) style() subtitle.Style {
	style := subtitle.DefaultStyle()
	style.TextColor = subtitle.LookupColor(f.TextColor, style.TextColor)
	style.OutlineColor = subtitle.LookupColor(f.OutlineColor, style.OutlineColor)
	if f.FontSize != nil {
		style.FontSize = *f.FontSize
	}
	if f.OutlineWidth != nil {
		style.OutlineWidth = *f.OutlineWidth
	}
	if f.MarginBottom != nil {
		style.MarginBottom = *f.MarginBottom
	}
	if f.MarginSide != nil {
		style.MarginSide = *f.MarginSide
	}
	return style
}

func (s *Server) handleBurn(c *gin.Context) {
	sess, release, ok := s.lookup(c)
	if !ok {
		return
	}
	defer release()

	var form burnForm
	if err := c.ShouldBindJSON(&form); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(c, badRequest("invalid request: %v", err))
		return
	}

	gen := sess.generation()
	if gen == nil {
		s.respondError(c, missingInput("nothing generated in this session yet"))
		return
	}
	if strings.TrimSpace(form.Document) != "" {
		gen = gen.WithDocument(subtitle.NewDocument(form.Document))
		sess.setGeneration(gen)
	}

	output, err := s.opts.Pipeline.Burn(c.Request.Context(), gen, form.style(), sess.progress("burn"))
	if err != nil {
		sess.publish(ProgressEvent{Stage: "error", Fraction: 1, Status: err.Error()})
		s.respondError(c, err)
		return
	}
	sess.setOutput(output)

	c.JSON(http.StatusOK, gin.H{
		"output": output,
		"video":  "/api/sessions/" + sess.id + "/video",
	})
}

type translateForm struct {
	Document       string `json:"document"`
	TargetLanguage string `json:"target_language"`
	Provider       string `json:"provider"`
	Overlay        bool   `json:"overlay"`
	Concurrency    int    `json:"concurrency"`
}

func (s *Server) handleTranslate(c *gin.Context) {
	sess, release, ok := s.lookup(c)
	if !ok {
		return
	}
	defer release()

	var form translateForm
	if err := c.ShouldBindJSON(&form); err != nil {
		s.respondError(c, badRequest("invalid request: %v", err))
		return
	}
	if strings.TrimSpace(form.TargetLanguage) == "" {
		s.respondError(c, badRequest("target_language is required"))
		return
	}
	if s.opts.Translators == nil {
		s.respondError(c, &pipeline.Error{Stage: stageTranslate, Kind: pipeline.KindInternal, Err: errors.New("translation is not configured")})
		return
	}

	gen := sess.generation()
	doc := subtitle.NewDocument(form.Document)
	if strings.TrimSpace(form.Document) == "" {
		if gen == nil {
			s.respondError(c, missingInput("no document to translate"))
			return
		}
		doc = gen.Document
	}

	tr, err := s.opts.Translators(c.Request.Context(), translate.Provider(strings.ToLower(form.Provider)), form.TargetLanguage)
	if err != nil {
		s.respondError(c, badRequest("%v", err))
		return
	}

	sess.publish(ProgressEvent{Stage: "translate", Fraction: 0.1, Status: "Translating..."})
	out, err := translate.TranslateDocument(c.Request.Context(), tr, doc, translate.DocumentOptions{
		Overlay:     form.Overlay,
		Concurrency: form.Concurrency,
	})
	if err != nil {
		kind := pipeline.KindExternalProcess
		if errors.Is(err, subtitle.ErrMalformedDocument) {
			kind = pipeline.KindValidation
		}
		s.respondError(c, &pipeline.Error{Stage: stageTranslate, Kind: kind, Err: err})
		return
	}
	sess.publish(ProgressEvent{Stage: "translate", Fraction: 1, Status: "Done"})

	if gen != nil {
		sess.setGeneration(gen.WithDocument(out))
	}
	c.JSON(http.StatusOK, gin.H{"document": out.String()})
}

func (s *Server) handleEvents(c *gin.Context) {
	sess, err := s.sessions.get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-sess.events:
			c.SSEvent("progress", ev)
		case <-keepAlive.C:
			_, _ = fmt.Fprintf(c.Writer, ": keepalive %d\n\n", time.Now().Unix())
		}
		c.Writer.Flush()
	}
}

func (s *Server) handleSubtitles(c *gin.Context) {
	sess, err := s.sessions.get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	gen := sess.generation()
	if gen == nil {
		s.respondError(c, missingInput("no subtitle document yet"))
		return
	}

	format, err := subtitle.ParseFormat(c.DefaultQuery("format", string(subtitle.FormatASS)))
	if err != nil {
		s.respondError(c, badRequest("%v", err))
		return
	}
	name := gen.Stem + subtitle.GetExtensionForFormat(format)

	if format == subtitle.FormatASS {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, "text/x-ssa; charset=utf-8", gen.Document.Bytes())
		return
	}

	f, err := os.CreateTemp(s.opts.Pipeline.OutputDir(), gen.Stem+"_export_*"+subtitle.GetExtensionForFormat(format))
	if err != nil {
		s.respondError(c, err)
		return
	}
	tmp := f.Name()
	f.Close()
	defer os.Remove(tmp)

	if err := subtitle.Export(gen.Document, tmp); err != nil {
		if errors.Is(err, subtitle.ErrMalformedDocument) {
			err = badRequest("%v", err)
		}
		s.respondError(c, err)
		return
	}
	c.FileAttachment(tmp, name)
}

func (s *Server) handleVideo(c *gin.Context) {
	sess, err := s.sessions.get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	path := sess.finalOutput()
	if c.Query("kind") == "clip" || path == "" {
		path = ""
		if gen := sess.generation(); gen != nil {
			path = gen.Clip
		}
	}
	if path == "" {
		s.respondError(c, missingInput("no video yet"))
		return
	}
	if _, err := os.Stat(path); err != nil {
		s.respondError(c, missingInput("video: %v", err))
		return
	}
	c.File(path)
}
