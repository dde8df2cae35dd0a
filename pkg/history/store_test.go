package history_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/meterlab/graphsight/pkg/history"
)

var _ = Describe("Store", func() {
	var (
		store *history.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = history.NewStore(":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	Describe("NewStore", func() {
		It("creates a store with an in-memory database", func() {
			Expect(store).NotTo(BeNil())
		})

		It("creates a store with a file database", func() {
			tmpDir := GinkgoT().TempDir()
			dbPath := filepath.Join(tmpDir, "runs.db")

			s, err := history.NewStore(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("SaveRun", func() {
		It("stores a run and derives verdict counts", func() {
			runID, err := store.SaveRun(ctx, history.Run{
				StartedAt: time.Now(),
				Directory: "/data/pms",
				Model:     "qwen2-vl",
			}, []history.Record{
				{GraphName: "Graph1", Result: "Normal"},
				{GraphName: "Graph2", Result: "Normal"},
				{GraphName: "Graph3", Result: "Abnormal"},
				{GraphName: "Graph4", Result: "Unknown"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(runID).To(BeNumerically(">", 0))

			runs, err := store.Runs(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(1))
			Expect(runs[0].Normal).To(Equal(2))
			Expect(runs[0].Abnormal).To(Equal(1))
			Expect(runs[0].Unknown).To(Equal(1))
			Expect(runs[0].Directory).To(Equal("/data/pms"))
			Expect(runs[0].Model).To(Equal("qwen2-vl"))
		})

		It("stores a run with no records", func() {
			runID, err := store.SaveRun(ctx, history.Run{
				StartedAt: time.Now(),
				Directory: "/empty",
				Model:     "local",
			}, nil)
			Expect(err).NotTo(HaveOccurred())

			records, err := store.Records(ctx, runID)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})
	})

	Describe("Runs", func() {
		It("returns runs newest first", func() {
			for _, dir := range []string{"/first", "/second", "/third"} {
				_, err := store.SaveRun(ctx, history.Run{
					StartedAt: time.Now(),
					Directory: dir,
					Model:     "local",
				}, nil)
				Expect(err).NotTo(HaveOccurred())
			}

			runs, err := store.Runs(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(3))
			Expect(runs[0].Directory).To(Equal("/third"))
			Expect(runs[2].Directory).To(Equal("/first"))
		})

		It("returns nothing for an empty store", func() {
			runs, err := store.Runs(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(BeEmpty())
		})
	})

	Describe("Records", func() {
		It("returns records in classification order", func() {
			runID, err := store.SaveRun(ctx, history.Run{
				StartedAt: time.Now(),
				Directory: "/data",
				Model:     "local",
			}, []history.Record{
				{GraphName: "B", Result: "Normal"},
				{GraphName: "A", Result: "Abnormal"},
				{GraphName: "C", Result: "Unknown"},
			})
			Expect(err).NotTo(HaveOccurred())

			records, err := store.Records(ctx, runID)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(3))
			// Insertion order, not name order.
			Expect(records[0].GraphName).To(Equal("B"))
			Expect(records[1].GraphName).To(Equal("A"))
			Expect(records[2].GraphName).To(Equal("C"))
			Expect(records[1].Position).To(Equal(1))
		})

		It("keeps runs isolated from each other", func() {
			first, err := store.SaveRun(ctx, history.Run{StartedAt: time.Now(), Directory: "/a", Model: "m"},
				[]history.Record{{GraphName: "OnlyInFirst", Result: "Normal"}})
			Expect(err).NotTo(HaveOccurred())

			second, err := store.SaveRun(ctx, history.Run{StartedAt: time.Now(), Directory: "/b", Model: "m"},
				[]history.Record{{GraphName: "OnlyInSecond", Result: "Abnormal"}})
			Expect(err).NotTo(HaveOccurred())

			records, err := store.Records(ctx, first)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].GraphName).To(Equal("OnlyInFirst"))

			records, err = store.Records(ctx, second)
			Expect(err).NotTo(HaveOccurred())
			Expect(records[0].GraphName).To(Equal("OnlyInSecond"))
		})
	})
})
