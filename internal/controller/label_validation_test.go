// Copyright 2025 Costwatch Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package controller

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/multierr"

	"github.com/nextdoor/costwatch/pkg/fleet"
	"github.com/nextdoor/costwatch/pkg/kube"
	"github.com/nextdoor/costwatch/pkg/labels"
)

// fakeLister yields fixed resources, optionally followed by an error.
type fakeLister struct {
	pods        []kube.Resource
	podErr      error
	deployments []kube.Resource
	deployErr   error
}

func yieldAll(resources []kube.Resource, tail error) iter.Seq2[kube.Resource, error] {
	return func(yield func(kube.Resource, error) bool) {
		for _, r := range resources {
			if !yield(r, nil) {
				return
			}
		}
		if tail != nil {
			yield(kube.Resource{}, tail)
		}
	}
}

func (f *fakeLister) ListPods(context.Context) iter.Seq2[kube.Resource, error] {
	return yieldAll(f.pods, f.podErr)
}

func (f *fakeLister) ListDeployments(context.Context) iter.Seq2[kube.Resource, error] {
	return yieldAll(f.deployments, f.deployErr)
}

// fakeValidationMetrics records calls in order.
type fakeValidationMetrics struct {
	tallies   []fleet.Tally
	completed int
	pushed    int
	pushErr   error
	calls     []string
}

func (f *fakeValidationMetrics) RecordValidation(tally fleet.Tally) {
	f.tallies = append(f.tallies, tally)
	f.calls = append(f.calls, "validation:"+string(tally.Kind))
}

func (f *fakeValidationMetrics) RecordRunCompleted() {
	f.completed++
	f.calls = append(f.calls, "completed")
}

func (f *fakeValidationMetrics) Push(context.Context) error {
	f.pushed++
	f.calls = append(f.calls, "push")
	return f.pushErr
}

func completeLabels(env string) map[string]string {
	return map[string]string{
		labels.KeyService:      "checkout",
		labels.KeyTeam:         "payments",
		labels.KeyEnvironment:  env,
		labels.KeyCostCenter:   "CC-12345",
		labels.KeyBusinessUnit: "commerce",
	}
}

func resource(name string, l map[string]string) kube.Resource {
	return kube.Resource{Namespace: "default", Name: name, Labels: l}
}

var _ = Describe("LabelValidationJob", func() {
	var (
		ctx     context.Context
		lister  *fakeLister
		metrics *fakeValidationMetrics
		job     *LabelValidationJob
	)

	BeforeEach(func() {
		ctx = context.Background()
		lister = &fakeLister{}
		metrics = &fakeValidationMetrics{}
		job = &LabelValidationJob{
			Lister:  lister,
			Metrics: metrics,
			Log:     logr.Discard(),
		}
	})

	Context("when every listing succeeds", func() {
		BeforeEach(func() {
			partial := completeLabels("prod")
			delete(partial, labels.KeyTeam)

			lister.pods = []kube.Resource{
				resource("valid", completeLabels("prod")),
				resource("no-team", partial),
				resource("bare", nil),
			}
			lister.deployments = []kube.Resource{
				resource("web", completeLabels("pre-stable")),
			}
		})

		It("records both tallies, then the run timestamp, then pushes", func() {
			run, err := job.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(metrics.calls).To(Equal([]string{
				"validation:pod", "validation:deployment", "completed", "push",
			}))
			Expect(run.ProducedData()).To(BeTrue())
			Expect(run.PushErr).NotTo(HaveOccurred())
			Expect(run.Passes).To(HaveLen(2))
		})

		It("tallies pods across the required keys", func() {
			_, err := job.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			pods := metrics.tallies[0]
			Expect(pods.Kind).To(Equal(fleet.ResourceKindPod))
			Expect(pods.Total).To(Equal(3))
			Expect(pods.ValidCount).To(Equal(1))
			Expect(pods.MissingCount[labels.KeyTeam]).To(Equal(2))
			Expect(pods.MissingCount[labels.KeyService]).To(Equal(1))
			Expect(pods.ByEnvironment).To(HaveKeyWithValue("prod", 2))
			Expect(pods.ByEnvironment).To(HaveKeyWithValue(labels.UnknownEnvironment, 1))
		})

		It("tallies deployments by label presence", func() {
			_, err := job.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			deployments := metrics.tallies[1]
			Expect(deployments.Kind).To(Equal(fleet.ResourceKindDeployment))
			Expect(deployments.Total).To(Equal(1))
			Expect(deployments.ValidCount).To(Equal(1))
		})
	})

	Context("when pod listing fails after some pods", func() {
		BeforeEach(func() {
			lister.pods = []kube.Resource{resource("valid", completeLabels("prod"))}
			lister.podErr = errors.New("connection reset")
			lister.deployments = []kube.Resource{resource("web", completeLabels("prod"))}
		})

		It("records the partial pod tally and still validates deployments", func() {
			run, err := job.Run(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err).To(MatchError(fleet.ErrListFailed))
			Expect(err.Error()).To(ContainSubstring("pod validation"))

			Expect(metrics.tallies).To(HaveLen(2))
			Expect(metrics.tallies[0].Total).To(Equal(1))
			Expect(run.Passes[0].Recorded).To(BeTrue())
			Expect(run.Passes[0].Err).To(HaveOccurred())
			Expect(run.Passes[1].Err).NotTo(HaveOccurred())
			Expect(metrics.completed).To(Equal(1))
			Expect(metrics.pushed).To(Equal(1))
		})
	})

	Context("when both listings fail before any resource", func() {
		BeforeEach(func() {
			lister.podErr = errors.New("forbidden")
			lister.deployErr = errors.New("forbidden")
		})

		It("records no tallies but still sets the run timestamp", func() {
			run, err := job.Run(ctx)
			Expect(multierr.Errors(err)).To(HaveLen(2))

			Expect(metrics.tallies).To(BeEmpty())
			Expect(metrics.calls).To(Equal([]string{"completed", "push"}))
			Expect(run.ProducedData()).To(BeFalse())
		})
	})

	Context("when the push fails", func() {
		BeforeEach(func() {
			lister.pods = []kube.Resource{resource("valid", completeLabels("prod"))}
			metrics.pushErr = errors.New("pushgateway unavailable")
		})

		It("reports the push error and keeps the recorded data", func() {
			run, err := job.Run(ctx)
			Expect(err).To(MatchError(metrics.pushErr))
			Expect(run.PushErr).To(MatchError(metrics.pushErr))
			Expect(run.ProducedData()).To(BeTrue())
		})
	})

	Context("with a list timeout", func() {
		It("gives each pass a deadline", func() {
			deadlines := &deadlineLister{}
			job.Lister = deadlines
			job.ListTimeout = time.Minute

			_, err := job.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(deadlines.sawDeadline).To(Equal([]bool{true, true}))
		})
	})
})

// deadlineLister records whether each listing context carried a deadline.
type deadlineLister struct {
	sawDeadline []bool
}

func (d *deadlineLister) observe(ctx context.Context) iter.Seq2[kube.Resource, error] {
	_, ok := ctx.Deadline()
	d.sawDeadline = append(d.sawDeadline, ok)
	return yieldAll(nil, nil)
}

func (d *deadlineLister) ListPods(ctx context.Context) iter.Seq2[kube.Resource, error] {
	return d.observe(ctx)
}

func (d *deadlineLister) ListDeployments(ctx context.Context) iter.Seq2[kube.Resource, error] {
	return d.observe(ctx)
}
