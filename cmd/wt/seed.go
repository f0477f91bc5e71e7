package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/worktrack/worktrack/internal/service"
	"github.com/worktrack/worktrack/internal/types"
)

// seedFixture is the YAML shape consumed by `wt seed`. Users and
// managers are referenced by email so fixtures stay readable.
type seedFixture struct {
	Company struct {
		Name       string `yaml:"name"`
		AdminEmail string `yaml:"admin_email"`
		AdminName  string `yaml:"admin_name"`
	} `yaml:"company"`
	Users []struct {
		Email   string `yaml:"email"`
		Name    string `yaml:"name"`
		Role    string `yaml:"role"`
		Manager string `yaml:"manager"` // manager's email
	} `yaml:"users"`
	Projects []seedProject `yaml:"projects"`
}

type seedProject struct {
	Key      string   `yaml:"key"`
	Name     string   `yaml:"name"`
	Manager  string   `yaml:"manager"` // manager's email
	Statuses []string `yaml:"statuses"`
	Items    []struct {
		Title    string `yaml:"title"`
		Type     string `yaml:"type"`
		Priority int    `yaml:"priority"`
		Assignee string `yaml:"assignee"` // assignee's email
	} `yaml:"items"`
	Sprints []struct {
		Name string `yaml:"name"`
		Goal string `yaml:"goal"`
	} `yaml:"sprints"`
	Tickets []struct {
		Title string `yaml:"title"`
	} `yaml:"tickets"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database from a YAML fixture",
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		data, err := os.ReadFile(file)
		if err != nil {
			FatalError("reading fixture: %v", err)
		}
		var fx seedFixture
		if err := yaml.Unmarshal(data, &fx); err != nil {
			FatalError("parsing fixture: %v", err)
		}
		if err := runSeed(cmd.Context(), fx); err != nil {
			FatalError("%v", err)
		}
		fmt.Printf("%s Seeded company %s with %d users and %d projects\n",
			successMark("✓"), fx.Company.Name, len(fx.Users), len(fx.Projects))
	},
}

func runSeed(ctx context.Context, fx seedFixture) error {
	reg := eng.RegisterCompany(ctx, service.RegisterCompanyInput{
		Name:       fx.Company.Name,
		AdminEmail: fx.Company.AdminEmail,
		AdminName:  fx.Company.AdminName,
	})
	if !reg.IsSuccess() {
		return fmt.Errorf("registering company: %s", reg.Reason)
	}
	admin := reg.Data.Admin.ID

	// Users are created in fixture order so managers can be referenced
	// by email before their reports.
	byEmail := map[string]string{fx.Company.AdminEmail: admin}
	for _, u := range fx.Users {
		managerID := byEmail[u.Manager]
		created := eng.RegisterUser(ctx, admin, service.RegisterUserInput{
			Email:     u.Email,
			Name:      u.Name,
			Role:      types.SystemRole(u.Role),
			ManagerID: managerID,
		})
		if !created.IsSuccess() {
			return fmt.Errorf("creating user %s: %s", u.Email, created.Reason)
		}
		byEmail[u.Email] = created.Data.ID
	}

	// Projects are independent of each other; seed them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range fx.Projects {
		p := p
		g.Go(func() error {
			return seedOneProject(gctx, admin, byEmail, p)
		})
	}
	return g.Wait()
}

func seedOneProject(ctx context.Context, admin string, byEmail map[string]string, p seedProject) error {
	created := eng.CreateProject(ctx, admin, service.CreateProjectInput{
		Name:      p.Name,
		Key:       p.Key,
		ManagerID: byEmail[p.Manager],
	})
	if !created.IsSuccess() {
		return fmt.Errorf("creating project %s: %s", p.Key, created.Reason)
	}
	projectID := created.Data.ID

	for _, name := range p.Statuses {
		if res := eng.CreateStatus(ctx, admin, service.CreateStatusInput{
			ProjectID: projectID,
			Name:      name,
		}); !res.IsSuccess() {
			return fmt.Errorf("creating status %s: %s", name, res.Reason)
		}
	}
	for _, s := range p.Sprints {
		if res := eng.CreateSprint(ctx, admin, service.CreateSprintInput{
			ProjectID: projectID,
			Name:      s.Name,
			Goal:      s.Goal,
		}); !res.IsSuccess() {
			return fmt.Errorf("creating sprint %s: %s", s.Name, res.Reason)
		}
	}
	for _, it := range p.Items {
		typ := types.WorkItemType(it.Type)
		if it.Type == "" {
			typ = types.TypeTask
		}
		if res := eng.CreateItem(ctx, admin, service.CreateItemInput{
			ProjectID:  projectID,
			Title:      it.Title,
			Type:       typ,
			Priority:   it.Priority,
			AssignedTo: byEmail[it.Assignee],
		}); !res.IsSuccess() {
			return fmt.Errorf("creating item %q: %s", it.Title, res.Reason)
		}
	}
	for _, t := range p.Tickets {
		if res := eng.CreateTicket(ctx, admin, service.CreateTicketInput{
			ProjectID: projectID,
			Title:     t.Title,
		}); !res.IsSuccess() {
			return fmt.Errorf("creating ticket %q: %s", t.Title, res.Reason)
		}
	}
	return nil
}

func init() {
	seedCmd.Flags().StringP("file", "f", "seed.yaml", "fixture file")
}
