package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvoronin/taskdeck/internal/apperrors"
	"github.com/nvoronin/taskdeck/internal/models"
	"github.com/nvoronin/taskdeck/internal/repository"
	"github.com/nvoronin/taskdeck/internal/testutil"
)

func createAuthor(t *testing.T, tx pgx.Tx) models.User {
	t.Helper()

	users := UserRepo{DB: tx}
	user, err := users.CreateUser(t.Context(), "Author", uuid.NewString()+"@example.com", "hash")
	require.NoError(t, err)
	return user
}

func Test_ProjectRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create project ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ProjectRepo{DB: tx}
			author := createAuthor(t, tx)
			due := time.Now().Add(7 * 24 * time.Hour).Truncate(time.Second)

			saved, err := r.CreateProject(t.Context(), models.Project{
				AuthorID:    author.ID,
				Name:        "Website relaunch",
				Description: "New marketing site",
				Status:      models.ProjectStatusActive,
				Priority:    models.PriorityHigh,
				Progress:    25,
				DueDate:     &due,
			})

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, saved.ID, "id should be assigned")
			assert.Equal(t, author.ID, saved.AuthorID)
			assert.Equal(t, "Website relaunch", saved.Name)
			assert.Equal(t, models.ProjectStatusActive, saved.Status)
			assert.Equal(t, models.PriorityHigh, saved.Priority)
			assert.Equal(t, int32(25), saved.Progress)
			require.NotNil(t, saved.DueDate)
			assert.WithinDuration(t, due, *saved.DueDate, time.Second)
			assert.WithinDuration(t, time.Now(), saved.CreatedAt, time.Second)
		})
	})

	t.Run("create project without due date", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ProjectRepo{DB: tx}
			author := createAuthor(t, tx)

			saved, err := r.CreateProject(t.Context(), models.Project{
				AuthorID: author.ID,
				Name:     "No deadline",
				Status:   models.ProjectStatusPlanned,
				Priority: models.PriorityMedium,
			})

			require.NoError(t, err)
			assert.Nil(t, saved.DueDate)
		})
	})

	t.Run("get project scoped by author", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ProjectRepo{DB: tx}
			author := createAuthor(t, tx)
			stranger := createAuthor(t, tx)

			saved, err := r.CreateProject(t.Context(), models.Project{
				AuthorID: author.ID,
				Name:     "Mine",
				Status:   models.ProjectStatusPlanned,
				Priority: models.PriorityMedium,
			})
			require.NoError(t, err)

			got, err := r.GetProject(t.Context(), saved.ID, author.ID)
			require.NoError(t, err)
			assert.Equal(t, saved.ID, got.ID)

			// Someone else's project behaves exactly like a missing one
			_, err = r.GetProject(t.Context(), saved.ID, stranger.ID)
			require.ErrorIs(t, err, apperrors.ErrProjectNotFound)
		})
	})

	t.Run("list projects", func(t *testing.T) {
		seed := func(t *testing.T, tx pgx.Tx, authorID uuid.UUID) {
			t.Helper()
			r := ProjectRepo{DB: tx}

			for i, p := range []models.Project{
				{Name: "Website relaunch", Description: "marketing", Status: models.ProjectStatusActive, Priority: models.PriorityHigh},
				{Name: "Mobile app", Description: "ios and android", Status: models.ProjectStatusActive, Priority: models.PriorityMedium},
				{Name: "Data warehouse", Description: "reporting backend", Status: models.ProjectStatusPlanned, Priority: models.PriorityLow},
				{Name: "Office move", Description: "new office", Status: models.ProjectStatusDone, Priority: models.PriorityHigh},
			} {
				p.AuthorID = authorID
				_, err := r.CreateProject(t.Context(), p)
				require.NoError(t, err, "seed project %d", i)
			}
		}

		t.Run("all for author", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				r := ProjectRepo{DB: tx}
				author := createAuthor(t, tx)
				stranger := createAuthor(t, tx)
				seed(t, tx, author.ID)

				projects, total, err := r.ListProjects(t.Context(), author.ID, repository.ListProjectsParams{})
				require.NoError(t, err)
				assert.Equal(t, int64(4), total)
				assert.Len(t, projects, 4)

				projects, total, err = r.ListProjects(t.Context(), stranger.ID, repository.ListProjectsParams{})
				require.NoError(t, err)
				assert.Equal(t, int64(0), total)
				assert.Empty(t, projects)
			})
		})

		t.Run("search matches name or description, case insensitive", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				r := ProjectRepo{DB: tx}
				author := createAuthor(t, tx)
				seed(t, tx, author.ID)

				projects, total, err := r.ListProjects(t.Context(), author.ID, repository.ListProjectsParams{Search: "WEBSITE"})
				require.NoError(t, err)
				assert.Equal(t, int64(1), total)
				require.Len(t, projects, 1)
				assert.Equal(t, "Website relaunch", projects[0].Name)

				_, total, err = r.ListProjects(t.Context(), author.ID, repository.ListProjectsParams{Search: "office"})
				require.NoError(t, err)
				assert.Equal(t, int64(1), total, "description should be searched too")
			})
		})

		t.Run("filter by status and priority", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				r := ProjectRepo{DB: tx}
				author := createAuthor(t, tx)
				seed(t, tx, author.ID)

				_, total, err := r.ListProjects(t.Context(), author.ID, repository.ListProjectsParams{Status: models.ProjectStatusActive})
				require.NoError(t, err)
				assert.Equal(t, int64(2), total)

				_, total, err = r.ListProjects(t.Context(), author.ID, repository.ListProjectsParams{
					Status:   models.ProjectStatusActive,
					Priority: models.PriorityHigh,
				})
				require.NoError(t, err)
				assert.Equal(t, int64(1), total)
			})
		})

		t.Run("limit and offset page, total stays full", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				r := ProjectRepo{DB: tx}
				author := createAuthor(t, tx)
				seed(t, tx, author.ID)

				page, total, err := r.ListProjects(t.Context(), author.ID, repository.ListProjectsParams{Limit: 3})
				require.NoError(t, err)
				assert.Equal(t, int64(4), total, "total should count all matches, not the page")
				assert.Len(t, page, 3)

				rest, _, err := r.ListProjects(t.Context(), author.ID, repository.ListProjectsParams{Limit: 3, Offset: 3})
				require.NoError(t, err)
				assert.Len(t, rest, 1)
			})
		})
	})

	t.Run("update project", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ProjectRepo{DB: tx}
			author := createAuthor(t, tx)

			saved, err := r.CreateProject(t.Context(), models.Project{
				AuthorID: author.ID,
				Name:     "Before",
				Status:   models.ProjectStatusPlanned,
				Priority: models.PriorityLow,
			})
			require.NoError(t, err)

			saved.Name = "After"
			saved.Status = models.ProjectStatusActive
			saved.Progress = 50

			got, err := r.UpdateProject(t.Context(), saved)

			require.NoError(t, err)
			assert.Equal(t, "After", got.Name)
			assert.Equal(t, models.ProjectStatusActive, got.Status)
			assert.Equal(t, int32(50), got.Progress)
			assert.Equal(t, saved.CreatedAt, got.CreatedAt, "CreatedAt must not change on update")
		})
	})

	t.Run("update someone else's project", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ProjectRepo{DB: tx}
			author := createAuthor(t, tx)
			stranger := createAuthor(t, tx)

			saved, err := r.CreateProject(t.Context(), models.Project{
				AuthorID: author.ID,
				Name:     "Protected",
				Status:   models.ProjectStatusPlanned,
				Priority: models.PriorityMedium,
			})
			require.NoError(t, err)

			saved.AuthorID = stranger.ID
			_, err = r.UpdateProject(t.Context(), saved)

			require.ErrorIs(t, err, apperrors.ErrProjectNotFound)
		})
	})

	t.Run("delete project", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ProjectRepo{DB: tx}
			author := createAuthor(t, tx)

			saved, err := r.CreateProject(t.Context(), models.Project{
				AuthorID: author.ID,
				Name:     "Doomed",
				Status:   models.ProjectStatusPlanned,
				Priority: models.PriorityMedium,
			})
			require.NoError(t, err)

			err = r.DeleteProject(t.Context(), saved.ID, author.ID)
			require.NoError(t, err)

			_, err = r.GetProject(t.Context(), saved.ID, author.ID)
			require.ErrorIs(t, err, apperrors.ErrProjectNotFound)

			err = r.DeleteProject(t.Context(), saved.ID, author.ID)
			require.ErrorIs(t, err, apperrors.ErrProjectNotFound, "second delete should report not found")
		})
	})
}

// Guard against ILIKE wildcard injection through the search string
func Test_ProjectRepo_SearchSpecialChars(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
		r := ProjectRepo{DB: tx}
		author := createAuthor(t, tx)

		for i := 0; i < 3; i++ {
			_, err := r.CreateProject(t.Context(), models.Project{
				AuthorID: author.ID,
				Name:     fmt.Sprintf("Project %d", i),
				Status:   models.ProjectStatusPlanned,
				Priority: models.PriorityMedium,
			})
			require.NoError(t, err)
		}

		// Search is substring only, a stray percent still matches everything
		// but must not break the query
		_, _, err := r.ListProjects(t.Context(), author.ID, repository.ListProjectsParams{Search: "'; DROP TABLE projects; --"})
		require.NoError(t, err)

		_, total, err := r.ListProjects(t.Context(), author.ID, repository.ListProjectsParams{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total, "table should survive hostile search input")
	})
}
