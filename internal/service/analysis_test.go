package service_test

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kubev2v/inventory-advisor/internal/advisory"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/ranking"
	"github.com/kubev2v/inventory-advisor/internal/service"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingProvider struct {
	calls atomic.Int32
}

func (p *countingProvider) Advise(_ context.Context, prompt string) (string, error) {
	p.calls.Add(1)
	return "advice for " + strings.SplitN(prompt, "\n", 2)[0], nil
}

var _ = Describe("analysis service", func() {
	var (
		sources []inventory.SourceData
		holder  *inventory.Holder
		now     time.Time
	)

	BeforeEach(func() {
		sources = []inventory.SourceData{
			sourceData("prod", []string{"web01", "legacy01", "legacy02"}, "legacy01", "legacy02"),
			sourceData("lab", []string{"lab01", "legacy03"}, "legacy03"),
		}
		holder = staticHolder(&sources)
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		_, err := holder.Reload(context.TODO())
		Expect(err).To(BeNil())
	})

	newService := func(opts ...service.AnalysisOption) *service.AnalysisService {
		opts = append([]service.AnalysisOption{service.WithClock(func() time.Time { return now })}, opts...)
		return service.NewAnalysisService(holder, findings.DefaultThresholds(), opts...)
	}

	It("analyzes the served snapshot", func() {
		a, err := newService().Analyze(context.TODO())
		Expect(err).To(BeNil())
		Expect(a.Epoch()).To(Equal(uint64(1)))
		Expect(a.Now).To(Equal(now))
		Expect(a.Tree).NotTo(BeNil())

		eol, summary := a.Filter(ranking.Filter{Types: []findings.Type{findings.TypeEOLOS}})
		Expect(eol).To(HaveLen(3))
		Expect(summary.Total).To(Equal(3))
		Expect(summary.ByType).To(HaveKeyWithValue(findings.TypeEOLOS, 3))
	})

	It("filters findings by source and limit", func() {
		a, err := newService().Analyze(context.TODO())
		Expect(err).To(BeNil())

		lab, _ := a.Filter(ranking.Filter{Source: "LAB", Types: []findings.Type{findings.TypeEOLOS}})
		Expect(lab).To(HaveLen(1))
		Expect(lab[0].Target).To(Equal("legacy03"))

		limited, summary := a.Filter(ranking.Filter{Types: []findings.Type{findings.TypeEOLOS}, Limit: 2})
		Expect(limited).To(HaveLen(2))
		Expect(summary.Total).To(Equal(2))
	})

	It("reuses the analysis until the snapshot changes", func() {
		srv := newService()
		first, err := srv.Analyze(context.TODO())
		Expect(err).To(BeNil())
		second, err := srv.Analyze(context.TODO())
		Expect(err).To(BeNil())
		Expect(second).To(BeIdenticalTo(first))

		sources = sources[:1]
		_, err = holder.Reload(context.TODO())
		Expect(err).To(BeNil())

		third, err := srv.Analyze(context.TODO())
		Expect(err).To(BeNil())
		Expect(third).NotTo(BeIdenticalTo(first))
		Expect(third.Epoch()).To(Equal(uint64(2)))
		eol, _ := third.Filter(ranking.Filter{Types: []findings.Type{findings.TypeEOLOS}})
		Expect(eol).To(HaveLen(2))
	})

	It("recomputes an analysis older than its ttl", func() {
		srv := newService(service.WithAnalysisTTL(time.Minute))
		first, err := srv.Analyze(context.TODO())
		Expect(err).To(BeNil())

		now = now.Add(2 * time.Minute)
		second, err := srv.Analyze(context.TODO())
		Expect(err).To(BeNil())
		Expect(second).NotTo(BeIdenticalTo(first))
		Expect(second.Now).To(Equal(now))
	})

	It("derives every analytics view from the same snapshot", func() {
		a, err := newService().Analyze(context.TODO())
		Expect(err).To(BeNil())

		stats := a.Stats()
		Expect(stats.Total.VMs).To(Equal(5))
		Expect(stats.Sources).To(HaveLen(2))

		os := a.OSDistribution()
		Expect(os).NotTo(BeEmpty())

		Expect(a.Cost().TotalMonthly).To(BeNumerically(">", 0))
		Expect(a.Efficiency().Score).To(BeNumerically(">=", 0))
		Expect(a.DiskWaste().DiskCount).To(Equal(0))
		Expect(a.Reservations()).To(BeEmpty())
	})

	It("serves an empty analysis before anything is ingested", func() {
		empty := inventory.NewHolder(inventory.LoaderFunc(func(ctx context.Context) ([]inventory.SourceData, error) {
			return nil, nil
		}))
		a, err := service.NewAnalysisService(empty, findings.DefaultThresholds()).Analyze(context.TODO())
		Expect(err).To(BeNil())
		Expect(a.Epoch()).To(Equal(uint64(0)))
		Expect(a.Findings).To(BeEmpty())
		Expect(a.Stats().Total.VMs).To(Equal(0))
	})

	Context("advisory", func() {
		It("returns the placeholder without a provider", func() {
			srv := newService()
			a, err := srv.Analyze(context.TODO())
			Expect(err).To(BeNil())

			advice, err := srv.AdviseFinding(context.TODO(), a, "EOL_OS:legacy01")
			Expect(err).To(BeNil())
			Expect(advice.Available).To(BeFalse())
			Expect(advice.Text).To(Equal(advisory.PlaceholderText))
		})

		It("asks the provider once per finding", func() {
			provider := &countingProvider{}
			srv := newService(service.WithAdvisory(advisory.NewService(provider)))
			a, err := srv.Analyze(context.TODO())
			Expect(err).To(BeNil())

			advice, err := srv.AdviseFinding(context.TODO(), a, "eol_os:legacy01")
			Expect(err).To(BeNil())
			Expect(advice.Available).To(BeTrue())
			Expect(advice.Cached).To(BeFalse())

			advice, err = srv.AdviseFinding(context.TODO(), a, "EOL_OS:legacy01")
			Expect(err).To(BeNil())
			Expect(advice.Cached).To(BeTrue())
			Expect(provider.calls.Load()).To(Equal(int32(1)))
		})

		It("rejects a malformed finding reference", func() {
			srv := newService()
			a, err := srv.Analyze(context.TODO())
			Expect(err).To(BeNil())

			for _, ref := range []string{"EOL_OS", ":legacy01", "EOL_OS:"} {
				_, err := srv.AdviseFinding(context.TODO(), a, ref)
				_, ok := err.(*service.ErrInvalidQuery)
				Expect(ok).To(BeTrue(), ref)
			}
		})

		It("reports an unknown finding", func() {
			srv := newService()
			a, err := srv.Analyze(context.TODO())
			Expect(err).To(BeNil())

			_, err = srv.AdviseFinding(context.TODO(), a, "EOL_OS:web01")
			_, ok := err.(*service.ErrResourceNotFound)
			Expect(ok).To(BeTrue())
		})

		It("advises on a free-text message", func() {
			provider := &countingProvider{}
			srv := newService(service.WithAdvisory(advisory.NewService(provider)))

			advice := srv.AdviseMessage(context.TODO(), "Datastore ds01 is low on space")
			Expect(advice.Available).To(BeTrue())
			Expect(advice.Text).To(HavePrefix("advice for"))
		})
	})
})
