package models_test

import (
	"sync"

	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/lcc-aid/fsystem-backend/internal/types"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) serialFor(h hierarchy, month types.MonthCode) models.GrantSerial {
	serial, err := models.CreateOrGetGrantSerial(models.DB, models.SerialScope{
		GrantCallID: h.Allocation.GrantCallID,
		StateName:   h.Allocation.StateName,
		Month:       month,
	})
	if err != nil {
		suite.Assert().FailNow("GrantSerial could not be created", "Error: %s", err)
	}

	return serial
}

func (suite *TestSuiteStandard) TestNextWorkplanNumberSequential() {
	h := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(100000))
	serial := suite.serialFor(h, "0825")

	for expected := uint(1); expected <= 5; expected++ {
		number, err := models.NextWorkplanNumber(models.DB, serial.ID)
		suite.Assert().NoError(err)
		suite.Assert().Equal(expected, number)
	}
}

// TestNextWorkplanNumberConcurrent verifies that concurrent number
// requests against the same serial never produce a duplicate or a gap.
func (suite *TestSuiteStandard) TestNextWorkplanNumberConcurrent() {
	h := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(100000))
	serial := suite.serialFor(h, "0825")

	const callers = 20

	var wg sync.WaitGroup
	numbers := make(chan uint, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			number, err := models.NextWorkplanNumber(models.DB, serial.ID)
			suite.Assert().NoError(err)
			numbers <- number
		}()
	}

	wg.Wait()
	close(numbers)

	seen := make(map[uint]bool, callers)
	for number := range numbers {
		suite.Assert().False(seen[number], "number %d was handed out twice", number)
		seen[number] = true
	}

	for expected := uint(1); expected <= callers; expected++ {
		suite.Assert().True(seen[expected], "number %d is missing from the sequence", expected)
	}
}

func (suite *TestSuiteStandard) TestNextWorkplanNumberIndependentSerials() {
	h := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(100000))
	august := suite.serialFor(h, "0825")
	september := suite.serialFor(h, "0925")

	for expected := uint(1); expected <= 3; expected++ {
		number, err := models.NextWorkplanNumber(models.DB, august.ID)
		suite.Assert().NoError(err)
		suite.Assert().Equal(expected, number)
	}

	// The September serial starts its own sequence at 1.
	number, err := models.NextWorkplanNumber(models.DB, september.ID)
	suite.Assert().NoError(err)
	suite.Assert().Equal(uint(1), number)
}

func (suite *TestSuiteStandard) TestReleaseWorkplanNumber() {
	h := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(100000))
	serial := suite.serialFor(h, "0825")

	for i := 0; i < 3; i++ {
		_, err := models.NextWorkplanNumber(models.DB, serial.ID)
		suite.Assert().NoError(err)
	}

	// Releasing the maximum makes it available again.
	suite.Assert().NoError(models.ReleaseWorkplanNumber(models.DB, serial.ID, 3))

	number, err := models.NextWorkplanNumber(models.DB, serial.ID)
	suite.Assert().NoError(err)
	suite.Assert().Equal(uint(3), number)
}

func (suite *TestSuiteStandard) TestReleaseWorkplanNumberGap() {
	h := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(100000))
	serial := suite.serialFor(h, "0825")

	for i := 0; i < 3; i++ {
		_, err := models.NextWorkplanNumber(models.DB, serial.ID)
		suite.Assert().NoError(err)
	}

	// Releasing a number from the middle leaves a permanent gap, the
	// counter keeps going from the maximum.
	suite.Assert().NoError(models.ReleaseWorkplanNumber(models.DB, serial.ID, 2))

	number, err := models.NextWorkplanNumber(models.DB, serial.ID)
	suite.Assert().NoError(err)
	suite.Assert().Equal(uint(4), number)
}

func (suite *TestSuiteStandard) TestReleaseWorkplanNumberZeroIsNoop() {
	h := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(100000))
	serial := suite.serialFor(h, "0825")

	suite.Assert().NoError(models.ReleaseWorkplanNumber(models.DB, serial.ID, 0))

	number, err := models.NextWorkplanNumber(models.DB, serial.ID)
	suite.Assert().NoError(err)
	suite.Assert().Equal(uint(1), number)
}
