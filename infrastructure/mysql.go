package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"application-intake/domain"
)

const insertApplicationSQL = `INSERT INTO applications (
	name, email, phone, age, qualification, graduation_year,
	location, video_filename, uploaded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`

// NewMySQLConnection prepares the connection pool. No connection is made
// here: an unreachable server surfaces per request as
// domain.ErrDatabaseConnection.
func NewMySQLConnection(cfg DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       cfg.DataSourceName(),
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:               newGormLogger(log),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime.Std())

	return db, nil
}

func newGormLogger(log *logrus.Logger) logger.Interface {
	return logger.New(log, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Store persists applications.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the applications table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&domain.Application{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// WithTx takes a connection from the pool, runs fn inside a transaction on
// it and hands the connection back. fn's error or panic rolls back;
// otherwise the transaction commits. Failing to begin is reported as
// domain.ErrDatabaseConnection.
func (s *Store) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) (err error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("%w (%v)", domain.ErrDatabaseConnection, tx.Error)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback().Error; rbErr != nil {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit().Error; cErr != nil {
			err = fmt.Errorf("failed to commit: %w", cErr)
		}
	}()

	return fn(tx)
}

// InsertApplication writes app with a parameterized statement and lets the
// database stamp uploaded_at. On return app carries its ID and UploadedAt.
func (s *Store) InsertApplication(tx *gorm.DB, app *domain.Application) error {
	if err := tx.Exec(insertApplicationSQL,
		app.Name, app.Email, app.Phone, app.Age, app.Qualification,
		app.GraduationYear, app.Location, app.VideoFilename,
	).Error; err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}

	if err := tx.Where("video_filename = ?", app.VideoFilename).First(app).Error; err != nil {
		return fmt.Errorf("failed to load inserted application: %w", err)
	}
	return nil
}

// ListApplications returns the matching applications, newest first, and
// their count.
func (s *Store) ListApplications(ctx context.Context, f domain.ApplicationFilter) ([]domain.Application, int64, error) {
	q := s.db.WithContext(ctx).Model(&domain.Application{})

	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("(name LIKE ? OR email LIKE ? OR phone LIKE ? OR location LIKE ?)", like, like, like, like)
	}
	if f.Name != "" {
		q = q.Where("name LIKE ?", "%"+f.Name+"%")
	}
	if f.Email != "" {
		q = q.Where("email LIKE ?", "%"+f.Email+"%")
	}
	if f.Phone != "" {
		q = q.Where("phone LIKE ?", "%"+f.Phone+"%")
	}
	if f.Location != "" {
		q = q.Where("location LIKE ?", "%"+f.Location+"%")
	}
	if f.Date != nil {
		q = q.Where("DATE(uploaded_at) = ?", f.Date.Format(time.DateOnly))
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	var apps []domain.Application
	if err := q.Order("uploaded_at DESC").Order("id DESC").Find(&apps).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, total, nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
