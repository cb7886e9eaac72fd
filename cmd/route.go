package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conexio/leadrouter/app"
	"github.com/conexio/leadrouter/config"
	"github.com/conexio/leadrouter/core/model"
)

var leadPath string

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Route a test lead from a JSON file",
	RunE:  routeLead,
}

func init() {
	routeCmd.Flags().StringVarP(&leadPath, "lead", "l", "lead.json", "lead JSON file")
	rootCmd.AddCommand(routeCmd)
}

type leadFile struct {
	ID     string `json:"id"`
	ZIP    string `json:"zip"`
	Score  *int   `json:"score"`
	Source string `json:"source"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func routeLead(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	data, err := os.ReadFile(leadPath)
	if err != nil {
		return fmt.Errorf("read lead: %w", err)
	}
	var lf leadFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return fmt.Errorf("parse lead: %w", err)
	}
	lead := model.Lead{
		ID:        lf.ID,
		ZIP:       lf.ZIP,
		Score:     lf.Score,
		Source:    lf.Source,
		Phone:     lf.Phone,
		Email:     lf.Email,
		Name:      lf.Name,
		CreatedAt: time.Now(),
	}

	res := svc.Route(ctx, lead)
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
