package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"namo/internal/auth"
	"namo/internal/config"
	"namo/internal/db"
	"namo/internal/model"
	"namo/internal/repository"
)

// sampleUsers are created on an empty database.
var sampleUsers = []struct {
	Username string
	Password string
}{
	{"admin", "admin123"},
	{"testuser", "password123"},
}

// sampleNames are created on an empty database.
var sampleNames = []model.Name{
	newName("Austria", "Emma", "f", 1, 1200),
	newName("Austria", "Anna", "f", 2, 1100),
	newName("Austria", "Liam", "m", 1, 1300),
	newName("Austria", "Noah", "m", 2, 1250),
	newName("Germany", "Sofia", "f", 1, 2000),
	newName("Germany", "Maria", "f", 2, 1900),
	newName("Germany", "Leon", "m", 1, 2100),
	newName("Germany", "Ben", "m", 2, 2050),
	newName("Switzerland", "Mia", "f", 1, 800),
	newName("Switzerland", "Elena", "f", 2, 750),
	newName("Switzerland", "David", "m", 1, 850),
	newName("Switzerland", "Julian", "m", 2, 800),
}

// plainName matches display names made of latin letters, umlauts and hyphens.
var plainName = regexp.MustCompile(`^[A-Za-zÖÄÜöäü-]+$`)

func main() {
	csvPath := flag.String("csv", "", "import names from a source,name,gender,rank,count CSV file")
	flag.Parse()

	log.Println("Starting seed script...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	nameRepo := repository.NewNameRepository(gormDB)

	names := sampleNames
	if *csvPath != "" {
		f, err := os.Open(*csvPath)
		if err != nil {
			log.Fatalf("Failed to open CSV: %v", err)
		}
		names, err = parseNamesCSV(f)
		f.Close()
		if err != nil {
			log.Fatalf("Failed to parse CSV: %v", err)
		}
		log.Printf("Read %d names from %s", len(names), *csvPath)
	} else {
		users, err := userRepo.Count(ctx)
		if err != nil {
			log.Fatalf("Failed to count users: %v", err)
		}
		if users > 0 {
			log.Println("Database already has data, skipping initialization.")
			return
		}
		created, err := seedUsers(ctx, userRepo, auth.NewPasswordHasher(cfg.BcryptCost))
		if err != nil {
			log.Fatalf("Failed to seed users: %v", err)
		}
		log.Printf("Created %d users", created)
	}

	log.Println("Seeding names into database...")
	seeded, updated, err := seedNames(ctx, nameRepo, names)
	if err != nil {
		log.Fatalf("Failed to seed names: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - New names created: %d", seeded)
	log.Printf("  - Existing names updated: %d", updated)
	log.Printf("  - Total names processed: %d", seeded+updated)
}

// passwordHasher hashes sample passwords.
type passwordHasher interface {
	Hash(password string) (string, error)
}

// seedUsers creates the sample users.
func seedUsers(ctx context.Context, repo repository.UserRepository, hasher passwordHasher) (int, error) {
	created := 0
	for _, u := range sampleUsers {
		digest, err := hasher.Hash(u.Password)
		if err != nil {
			return created, err
		}
		if err := repo.Create(ctx, &model.User{Username: u.Username, PasswordHash: digest}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return created, fmt.Errorf("error creating user %s: %w", u.Username, err)
		}
		created++
	}
	return created, nil
}

// seedNames upserts names keyed by (source, name, gender).
func seedNames(ctx context.Context, repo repository.NameRepository, names []model.Name) (seeded int, updated int, err error) {
	for _, name := range names {
		existing, err := repo.FindByKey(ctx, name.Source, name.Name, name.Gender)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return seeded, updated, fmt.Errorf("error checking name %s/%s: %w", name.Source, name.Name, err)
		}

		if existing != nil {
			// Update existing name
			existing.Rank = name.Rank
			existing.Count = name.Count
			if err := repo.Update(ctx, existing); err != nil {
				return seeded, updated, fmt.Errorf("error updating name %d: %w", existing.ID, err)
			}
			updated++
		} else {
			// Create new name
			if err := repo.Create(ctx, &name); err != nil {
				return seeded, updated, fmt.Errorf("error creating name %s/%s: %w", name.Source, name.Name, err)
			}
			seeded++
		}
	}

	return seeded, updated, nil
}

// parseNamesCSV reads source,name,gender,rank,count rows. A leading header
// row is skipped; empty gender, rank or count fields are stored as null.
func parseNamesCSV(r io.Reader) ([]model.Name, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 5
	reader.TrimLeadingSpace = true

	var names []model.Name
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(row[0], "source") {
			continue
		}

		name := model.Name{Source: strings.TrimSpace(row[0]), Name: strings.TrimSpace(row[1])}
		if name.Source == "" || name.Name == "" {
			return nil, fmt.Errorf("line %d: source and name are required", line)
		}
		if !plainName.MatchString(name.Name) {
			log.Printf("Line %d: unusual characters in name %q", line, name.Name)
		}

		if g := strings.ToLower(strings.TrimSpace(row[2])); g != "" {
			if g != model.GenderMale && g != model.GenderFemale {
				return nil, fmt.Errorf("line %d: gender must be m or f, got %q", line, row[2])
			}
			name.Gender = &g
		}
		if name.Rank, err = optionalInt(row[3]); err != nil {
			return nil, fmt.Errorf("line %d: rank: %w", line, err)
		}
		if name.Count, err = optionalInt(row[4]); err != nil {
			return nil, fmt.Errorf("line %d: count: %w", line, err)
		}
		names = append(names, name)
	}
	return names, nil
}

func optionalInt(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	if v < 0 {
		return nil, fmt.Errorf("must not be negative, got %d", v)
	}
	return &v, nil
}

func newName(source, name, gender string, rank, count int) model.Name {
	return model.Name{Source: source, Name: name, Gender: &gender, Rank: &rank, Count: &count}
}
