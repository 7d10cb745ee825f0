// Command lesson-cli generates the four lesson variants for one assignment
// from pasted text or an uploaded document, regenerates a quiz at a new
// difficulty, or checks a student answer against a stored quiz.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/book-expert/lesson-service/internal/config"
	"github.com/book-expert/lesson-service/internal/core"
	"github.com/book-expert/lesson-service/internal/extract"
	"github.com/book-expert/lesson-service/internal/gemini"
	"github.com/book-expert/lesson-service/internal/generate"
	"github.com/book-expert/lesson-service/internal/media"
	"github.com/book-expert/lesson-service/internal/objectstore"
	"github.com/book-expert/lesson-service/internal/render"
	"github.com/book-expert/lesson-service/internal/repair"
	"github.com/book-expert/lesson-service/internal/speech"
	"github.com/book-expert/lesson-service/internal/store"
	"github.com/book-expert/logger"
)

// Flag names.
const (
	flagTitle      = "title"
	flagSubject    = "subject"
	flagTeacherID  = "teacher"
	flagText       = "text"
	flagFile       = "file"
	flagRegenerate = "regenerate"
	flagDifficulty = "difficulty"
	flagGrade      = "grade"
	flagQuestion   = "question"
	flagAnswer     = "answer"
)

// Flag descriptions.
const (
	flagTitleDesc      = "Assignment title"
	flagSubjectDesc    = "Subject: math, science, language, history, geography, or standard"
	flagTeacherDesc    = "Teacher identifier"
	flagTextDesc       = "Lesson text to generate variants from"
	flagFileDesc       = "Path to a lesson document (.txt, .md, .pdf)"
	flagRegenerateDesc = "Assignment ID whose quiz should be regenerated"
	flagDifficultyDesc = "Quiz difficulty: easy, medium, or hard"
	flagGradeDesc      = "Assignment ID whose quiz answer should be checked"
	flagQuestionDesc   = "Zero-based quiz question index to check"
	flagAnswerDesc     = "Student answer to check against the stored quiz"
)

// Error and log messages.
const (
	errEitherTextOrFile = "either --text or --file must be provided"
	errTitleRequired    = "--title is required when creating an assignment"
	logFileName         = "lesson-cli.log"
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	title      string
	subject    string
	teacherID  string
	text       string
	file       string
	regenerate string
	difficulty string
	grade      string
	question   int
	answer     string
}

func main() {
	err := run()
	if err != nil {
		// The logger might not be initialized yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	bootstrapLog, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := logger.New(cfg.Paths.BaseLogsDir, logFileName)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	service, cleanup, err := buildService(cfg, finalLog)
	if err != nil {
		finalLog.Error("Failed to build pipeline: %v", err)

		return err
	}
	defer cleanup()

	return dispatch(service, flags, finalLog)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.title, flagTitle, "", flagTitleDesc)
	flag.StringVar(&flags.subject, flagSubject, string(core.SubjectStandard), flagSubjectDesc)
	flag.StringVar(&flags.teacherID, flagTeacherID, "", flagTeacherDesc)
	flag.StringVar(&flags.text, flagText, "", flagTextDesc)
	flag.StringVar(&flags.file, flagFile, "", flagFileDesc)
	flag.StringVar(&flags.regenerate, flagRegenerate, "", flagRegenerateDesc)
	flag.StringVar(&flags.difficulty, flagDifficulty, core.DifficultyMedium, flagDifficultyDesc)
	flag.StringVar(&flags.grade, flagGrade, "", flagGradeDesc)
	flag.IntVar(&flags.question, flagQuestion, 0, flagQuestionDesc)
	flag.StringVar(&flags.answer, flagAnswer, "", flagAnswerDesc)
	flag.Parse()

	return flags
}

// buildService wires the full generation pipeline from configuration. The
// returned cleanup closes the generative client.
func buildService(cfg *config.Config, log *logger.Logger) (*generate.Service, func(), error) {
	db, err := store.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	textClient, err := gemini.New(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model,
		cfg.Gemini.MaxAttempts,
		time.Duration(cfg.Gemini.RetryDelaySeconds)*time.Second, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create generative client: %w", err)
	}

	cleanup := func() {
		closeErr := textClient.Close()
		if closeErr != nil {
			log.Warn("Failed to close generative client: %v", closeErr)
		}
	}

	var speechClient *speech.HTTPClient
	if cfg.Speech.APIKey != "" {
		speechClient = speech.NewHTTPClient(cfg.Speech.BaseURL, cfg.Speech.APIKey,
			cfg.Speech.ModelID, cfg.Speech.OutputFormat,
			time.Duration(cfg.Speech.TimeoutSeconds)*time.Second)
	} else {
		log.Warn("No speech credential configured; audio degrades to placeholders.")
	}

	synthesizer := speech.NewSynthesizer(speechClient, speech.Settings{
		HostVoiceID:   cfg.Speech.HostVoiceID,
		ExpertVoiceID: cfg.Speech.ExpertVoiceID,
		MaxTextChars:  cfg.Generation.MaxSpeechChars,
		SegmentChars:  cfg.Generation.SegmentChars,
	}, log)

	var archive core.ObjectStore
	if cfg.NATS.URL != "" {
		connected, archiveErr := objectstore.Connect(cfg.NATS.URL, cfg.NATS.AssetBucket)
		if archiveErr != nil {
			log.Warn("Asset archive unavailable, continuing without it: %v", archiveErr)
		} else {
			archive = connected
		}
	}

	service := generate.NewService(generate.Deps{
		Repository: store.NewAssignmentRepository(db),
		Generator:  generate.NewGenerator(textClient, repair.New(log), cfg.Generation, log),
		Speech:     synthesizer,
		Renderer: render.New(cfg.Render.Binary,
			time.Duration(cfg.Render.TimeoutSeconds)*time.Second, log),
		Combiner: media.New(cfg.Media.FFmpegBinary,
			time.Duration(cfg.Media.CombineTimeoutSecs)*time.Second,
			cfg.Media.ValidSizeThresholdB, log),
		Extractor:  extract.New(),
		Archive:    archive,
		UploadRoot: cfg.Paths.UploadDir,
		Generation: cfg.Generation,
		Log:        log,
	})

	return service, cleanup, nil
}

// dispatch runs either quiz regeneration or assignment creation based on the
// parsed flags and prints the resulting record as JSON.
func dispatch(service *generate.Service, flags appFlags, log *logger.Logger) error {
	ctx := context.Background()

	if flags.grade != "" {
		correct, err := service.CheckQuizAnswer(ctx, flags.grade, flags.question, flags.answer)
		if err != nil {
			log.Error("Answer check failed: %v", err)

			return fmt.Errorf("failed to check answer: %w", err)
		}

		return printJSON(map[string]any{
			"assignment_id":  flags.grade,
			"question_index": flags.question,
			"correct":        correct,
		})
	}

	if flags.regenerate != "" {
		variant, err := service.RegenerateQuiz(ctx, flags.regenerate, flags.difficulty)
		if err != nil {
			log.Error("Quiz regeneration failed: %v", err)

			return fmt.Errorf("failed to regenerate quiz: %w", err)
		}

		return printJSON(variant)
	}

	if flags.text == "" && flags.file == "" {
		flag.Usage()

		return errors.New(errEitherTextOrFile)
	}

	if flags.title == "" {
		return errors.New(errTitleRequired)
	}

	assignment, err := service.CreateAssignment(ctx, generate.NewAssignmentRequest{
		Title:        flags.title,
		Subject:      core.Subject(flags.subject),
		TeacherID:    flags.teacherID,
		OriginalText: flags.text,
		FilePath:     flags.file,
	})
	if err != nil {
		return fmt.Errorf("failed to generate assignment: %w", err)
	}

	return printJSON(assignment)
}

func printJSON(value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	fmt.Println(string(encoded))

	return nil
}
