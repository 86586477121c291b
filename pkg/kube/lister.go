/*
Copyright 2025 Costwatch Contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package kube lists the cluster resources whose cost labels are validated.
//
// Pods and Deployments are read page by page through a controller-runtime
// client and exposed as lazy sequences, so a failure while fetching a later
// page still leaves the earlier pages usable by the caller.
package kube

import (
	"context"
	"fmt"
	"iter"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// DefaultPageSize is the number of objects requested per List call.
const DefaultPageSize int64 = 500

// Resource is the label view of one scanned object.
type Resource struct {
	Namespace string
	Name      string

	// Labels is the object's label map. For Deployments this is the pod
	// template's labels, since those are what running pods inherit.
	// May be nil.
	Labels map[string]string
}

// +kubebuilder:rbac:groups=core,resources=pods,verbs=list
// +kubebuilder:rbac:groups=apps,resources=deployments,verbs=list

// ClusterLister lists Pods and Deployments across the cluster (or one namespace).
type ClusterLister struct {
	// Client is any controller-runtime reader; the validator binary uses a
	// direct (uncached) client since each run is a single pass.
	Client client.Reader

	// Namespace restricts listing to one namespace. Empty means all namespaces.
	Namespace string

	// PageSize is the List limit per request. Defaults to DefaultPageSize.
	PageSize int64
}

// ListPods yields every pod's labels. If a List call fails the sequence
// yields the error once and stops.
func (l *ClusterLister) ListPods(ctx context.Context) iter.Seq2[Resource, error] {
	return func(yield func(Resource, error) bool) {
		l.paginate(ctx, "pods",
			func() client.ObjectList { return &corev1.PodList{} },
			func(page client.ObjectList) bool {
				for _, pod := range page.(*corev1.PodList).Items {
					if !yield(Resource{Namespace: pod.Namespace, Name: pod.Name, Labels: pod.Labels}, nil) {
						return false
					}
				}
				return true
			}, yield)
	}
}

// ListDeployments yields every deployment's pod template labels. If a List
// call fails the sequence yields the error once and stops.
func (l *ClusterLister) ListDeployments(ctx context.Context) iter.Seq2[Resource, error] {
	return func(yield func(Resource, error) bool) {
		l.paginate(ctx, "deployments",
			func() client.ObjectList { return &appsv1.DeploymentList{} },
			func(page client.ObjectList) bool {
				for _, deploy := range page.(*appsv1.DeploymentList).Items {
					if !yield(Resource{
						Namespace: deploy.Namespace,
						Name:      deploy.Name,
						Labels:    deploy.Spec.Template.Labels,
					}, nil) {
						return false
					}
				}
				return true
			}, yield)
	}
}

// paginate drives List calls with Limit/Continue until the server reports no
// more pages. emit receives each successful page and returns false when the
// consumer stopped iterating.
func (l *ClusterLister) paginate(
	ctx context.Context,
	kind string,
	newList func() client.ObjectList,
	emit func(page client.ObjectList) bool,
	yield func(Resource, error) bool,
) {
	pageSize := l.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	continueToken := ""
	for {
		opts := []client.ListOption{client.Limit(pageSize)}
		if l.Namespace != "" {
			opts = append(opts, client.InNamespace(l.Namespace))
		}
		if continueToken != "" {
			opts = append(opts, client.Continue(continueToken))
		}

		page := newList()
		if err := l.Client.List(ctx, page, opts...); err != nil {
			yield(Resource{}, fmt.Errorf("failed to list %s: %w", kind, err))
			return
		}
		if !emit(page) {
			return
		}

		continueToken = page.GetContinue()
		if continueToken == "" {
			return
		}
	}
}
