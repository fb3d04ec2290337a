package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/client"
	"github.com/flowmatrix/roiportal/internal/config"
	"github.com/flowmatrix/roiportal/internal/demo"
	"github.com/flowmatrix/roiportal/internal/note"
	"github.com/flowmatrix/roiportal/internal/project"
	"github.com/flowmatrix/roiportal/internal/store"
	"github.com/flowmatrix/roiportal/internal/task"
	"github.com/flowmatrix/roiportal/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the demo tenant with a client and an employee account",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	users := user.NewStore(pool, cfg.Auth.SessionTTL)

	// Check if seed has already run.
	exists, err := users.ExistsByEmail(ctx, demo.ClientEmail)
	if err != nil {
		return fmt.Errorf("checking existing demo data: %w", err)
	}
	if exists {
		slog.Info("demo data already exists, skipping seed")
		return nil
	}

	ds := demo.New(time.Now())
	var companyID string
	err = store.NewTxManager(pool).ExecTx(ctx, func(ctx context.Context) error {
		id, err := seedDataset(ctx, pool, users, ds)
		companyID = id
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Demo Data Seeded ===\n")
	fmt.Printf("Client:    %s (%s)\n", ds.Client.CompanyName, companyID)
	fmt.Printf("Projects:  %d\n", len(ds.Projects))
	fmt.Printf("Tasks:     %d\n", len(ds.Tasks))
	fmt.Printf("Notes:     %d\n", len(ds.Notes))
	fmt.Printf("\nSign in (local auth mode):\n")
	fmt.Printf("  client:   %s / %s\n", demo.ClientEmail, demo.Password)
	fmt.Printf("  employee: %s / %s\n", demo.EmployeeEmail, demo.Password)
	fmt.Printf("\nTry it:\n")
	fmt.Printf("  curl -X POST http://localhost:8080/api/v1/auth/login -d '{\"email\":\"%s\",\"password\":\"%s\"}'\n", demo.ClientEmail, demo.Password)

	return nil
}

// seedDataset writes ds and its two accounts. It must run inside a
// transaction so a failure leaves nothing behind.
func seedDataset(ctx context.Context, pool *pgxpool.Pool, users *user.Store, ds *demo.Dataset) (string, error) {
	clientUser, err := users.Create(ctx, user.CreateUserInput{Email: demo.ClientEmail, Password: demo.Password, Role: auth.RoleClient})
	if err != nil {
		return "", err
	}
	staff, err := users.Create(ctx, user.CreateUserInput{Email: demo.EmployeeEmail, Password: demo.Password, Role: auth.RoleEmployee})
	if err != nil {
		return "", err
	}

	c, err := client.NewStore(pool).Create(ctx, client.CreateClientInput{
		CompanyName:     ds.Client.CompanyName,
		Industry:        ds.Client.Industry,
		AvgEmployeeWage: ds.Client.AvgEmployeeWage,
	})
	if err != nil {
		return "", err
	}
	if err := users.LinkClient(ctx, clientUser.ID, c.ID); err != nil {
		return "", err
	}

	projects := project.NewStore(pool)
	projectIDs := make(map[string]string, len(ds.Projects))
	for _, p := range ds.Projects {
		created, err := projects.Create(ctx, project.CreateProjectInput{
			ClientID:           c.ID,
			Name:               p.Name,
			Status:             p.Status,
			HoursSavedDaily:    p.HoursSavedDaily,
			HoursSavedWeekly:   p.HoursSavedWeekly,
			HoursSavedMonthly:  p.HoursSavedMonthly,
			EmployeeWage:       p.EmployeeWage,
			DevCost:            p.DevCost,
			ImplementationCost: p.ImplementationCost,
			MonthlyMaintenance: p.MonthlyMaintenance,
			GoLiveDate:         p.GoLiveDate,
		})
		if err != nil {
			return "", fmt.Errorf("seeding project %q: %w", p.Name, err)
		}
		projectIDs[p.ID] = created.ID
		slog.Info("created project", "name", created.Name, "id", created.ID)
	}

	tasks := task.NewStore(pool)
	for _, t := range ds.Tasks {
		created, err := tasks.Create(ctx, projectIDs[t.ProjectID], t.Description, t.DueDate)
		if err != nil {
			return "", fmt.Errorf("seeding task: %w", err)
		}
		if t.IsCompleted && t.CompletedAt != nil {
			if _, err := tasks.SetCompleted(ctx, created.ID, true, *t.CompletedAt); err != nil {
				return "", fmt.Errorf("completing seeded task: %w", err)
			}
		}
	}

	notes := note.NewStore(pool)
	for _, n := range ds.Notes {
		author := clientUser.ID
		if n.NoteType == note.TypeFlowmatrixAI {
			author = staff.ID
		}
		created, err := notes.Create(ctx, author, note.CreateNoteInput{
			ProjectID: projectIDs[n.ProjectID],
			NoteType:  n.NoteType,
			Content:   n.Content,
		})
		if err != nil {
			return "", fmt.Errorf("seeding note: %w", err)
		}
		if n.IsRead {
			read := true
			if _, err := notes.Update(ctx, note.UpdateNoteInput{ID: created.ID, IsRead: &read}); err != nil {
				return "", fmt.Errorf("marking seeded note read: %w", err)
			}
		}
	}

	return c.ID, nil
}
