package main

import (
	"fmt"
	"log"
	"os"

	"github.com/inkwell/backend/internal/config"
	"github.com/inkwell/backend/internal/database"
	"github.com/inkwell/backend/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Inkwell CLI - administrative operations against the database",
	Long: `Inkwell CLI runs administrative operations directly against the
database: promoting accounts to CREATOR and printing content stats.`,
}

var promoteCmd = &cobra.Command{
	Use:   "promote-creator <email>",
	Short: "Upgrade a user to the CREATOR role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, cleanup, err := connect()
		if err != nil {
			return err
		}
		defer cleanup()

		var user models.User
		if err := db.Where("LOWER(email) = LOWER(?)", args[0]).First(&user).Error; err != nil {
			return fmt.Errorf("user not found: %s", args[0])
		}

		if user.Role == models.RoleCreator {
			fmt.Printf("%s is already a CREATOR\n", user.Username)
			return nil
		}

		if err := db.Model(&user).Update("role", models.RoleCreator).Error; err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		fmt.Printf("%s promoted to CREATOR\n", user.Username)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print row counts for users, publications, posts and subscriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, cleanup, err := connect()
		if err != nil {
			return err
		}
		defer cleanup()

		counts := []struct {
			name  string
			model interface{}
		}{
			{"users", &models.User{}},
			{"publications", &models.Publication{}},
			{"posts", &models.Post{}},
			{"subscriptions", &models.Subscription{}},
		}
		for _, c := range counts {
			var n int64
			if err := db.Model(c.model).Count(&n).Error; err != nil {
				return fmt.Errorf("failed to count %s: %w", c.name, err)
			}
			fmt.Printf("%-14s %d\n", c.name, n)
		}
		return nil
	},
}

func connect() (*gorm.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, func() { _ = database.Close(db) }, nil
}

func init() {
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
