package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"medistore/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedicineRepository_Reads(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMedicineRepository(pool, zerolog.Nop())
	ctx := context.Background()

	seedMedicines(t, pool, []model.Medicine{
		testMedicine("m2", 20, 5, false),
		testMedicine("m1", 10, 3, true),
		testMedicine("m3", 30, 0, false),
	})

	t.Run("GetAll orders by id", func(t *testing.T) {
		medicines, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, medicines, 3)
		assert.Equal(t, "m1", medicines[0].ID)
		assert.Equal(t, "m3", medicines[2].ID)
		assert.True(t, medicines[0].RequiresPrescription)
		assert.True(t, decimal.NewFromInt(10).Equal(medicines[0].Price))
	})

	tests := []struct {
		name      string
		id        string
		expectNil bool
	}{
		{name: "Medicine exists", id: "m2", expectNil: false},
		{name: "Medicine does not exist", id: "missing", expectNil: true},
	}

	for _, tt := range tests {
		t.Run("GetByID "+tt.name, func(t *testing.T) {
			medicine, err := repo.GetByID(ctx, tt.id)
			require.NoError(t, err)
			if tt.expectNil {
				assert.Nil(t, medicine)
				return
			}
			require.NotNil(t, medicine)
			assert.Equal(t, 5, medicine.Stock)
		})
	}

	t.Run("GetByIDs skips unknown ids", func(t *testing.T) {
		medicines, err := repo.GetByIDs(ctx, []string{"m1", "missing", "m3"})
		require.NoError(t, err)
		assert.Len(t, medicines, 2)

		empty, err := repo.GetByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("Inventory sums stock", func(t *testing.T) {
		count, units, err := repo.Inventory(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.Equal(t, 8, units)
	})
}

func TestMedicineRepository_Writes(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMedicineRepository(pool, zerolog.Nop())
	ctx := context.Background()
	now := time.Now().UTC()

	m := testMedicine("new-1", 45, 12, false)
	m.Description = "Vitamin"
	m.CreatedAt, m.UpdatedAt = now, now
	require.NoError(t, repo.Create(ctx, &m))

	t.Run("Update changes only provided fields", func(t *testing.T) {
		name := "Renamed"
		stock := 7
		updated, err := repo.Update(ctx, "new-1", model.MedicineUpdate{Name: &name, Stock: &stock})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, 7, updated.Stock)
		assert.Equal(t, "Vitamin", updated.Description)
		assert.True(t, decimal.NewFromInt(45).Equal(updated.Price))
	})

	t.Run("Update unknown id returns nil", func(t *testing.T) {
		name := "x"
		updated, err := repo.Update(ctx, "missing", model.MedicineUpdate{Name: &name})
		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("Restock adds units", func(t *testing.T) {
		restocked, err := repo.Restock(ctx, "new-1", 50)
		require.NoError(t, err)
		require.NotNil(t, restocked)
		assert.Equal(t, 57, restocked.Stock)

		missing, err := repo.Restock(ctx, "missing", 50)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Delete removes the row once", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, "new-1")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, "new-1")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestMedicineRepository_DecrementStock(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMedicineRepository(pool, zerolog.Nop())
	ctx := context.Background()

	seedMedicines(t, pool, []model.Medicine{testMedicine("m1", 10, 5, false)})

	tests := []struct {
		name        string
		id          string
		quantity    int
		expectedErr error
	}{
		{name: "Exact stock succeeds", id: "m1", quantity: 5},
		{name: "More than stock fails", id: "m1", quantity: 6, expectedErr: model.ErrInsufficientStock},
		{name: "Unknown medicine", id: "missing", quantity: 1, expectedErr: model.ErrMedicineNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := pool.Begin(ctx)
			require.NoError(t, err)
			defer tx.Rollback(ctx)

			err = repo.DecrementStock(ctx, tx, tt.id, tt.quantity)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	m, err := repo.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 5, m.Stock, "rolled back decrements leave stock unchanged")
}

func TestMedicineRepository_ConcurrentDecrementOfLastUnit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMedicineRepository(pool, zerolog.Nop())
	ctx := context.Background()

	seedMedicines(t, pool, []model.Medicine{testMedicine("last", 10, 1, false)})

	const buyers = 5
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		short   int
	)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			tx, err := pool.Begin(ctx)
			if !assert.NoError(t, err) {
				return
			}
			defer tx.Rollback(ctx)

			err = repo.DecrementStock(ctx, tx, "last", 1)
			if err == nil {
				err = tx.Commit(ctx)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case assert.ErrorIs(t, err, model.ErrInsufficientStock):
				short++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, buyers-1, short)

	m, err := repo.GetByID(ctx, "last")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Stock)
}
