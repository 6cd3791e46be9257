package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stemsi/proctor-backend/internal/config"
	"github.com/stemsi/proctor-backend/internal/database"
	"github.com/stemsi/proctor-backend/internal/logger"
	"github.com/stemsi/proctor-backend/internal/model"
	"github.com/stemsi/proctor-backend/internal/repository"
	"github.com/stemsi/proctor-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	authService := service.NewAuthService(cfg, repository.NewExaminerRepository(pool), log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Examiner ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}

	req := model.RegisterExaminerRequest{
		Name:     name,
		Email:    email,
		Password: string(bytePassword),
	}

	// Same rules as the HTTP endpoint.
	v := govalidator.New()
	v.SetTagName("binding")
	if err := v.Struct(req); err != nil {
		var ve govalidator.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				fmt.Printf("Error: %s failed rule %q\n", fe.Field(), fe.Tag())
			}
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Validation failed")
	}

	examiner, err := authService.Register(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			fmt.Printf("Error: an examiner with email %s already exists\n", req.Email)
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Failed to create examiner")
	}

	fmt.Printf("\nSuccess! Examiner '%s' (%s) created with ID: %s\n", examiner.Name, examiner.Email, examiner.ID)
}
