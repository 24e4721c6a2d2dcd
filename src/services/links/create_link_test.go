package links_test

import (
	"context"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
	"assetgraph/src/services/links"
	"assetgraph/src/test_artefacts/stubs"
)

// racingStore esconde as arestas existentes da validação, simulando uma
// escrita concorrente que só aparece no Put.
type racingStore struct {
	links.LinkStore
}

func (s racingStore) QueryByFromAndTo(context.Context, entities.AssetKey, entities.AssetKey, entities.RelationshipType) ([]entities.AssetLink, error) {
	return []entities.AssetLink{}, nil
}

var _ = Describe("Create", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture(links.DefaultConfig(), "A", "B", "C", "D", "E", "root", "child1", "child2")
	})

	Context("related links", func() {
		When("the same pair is linked again in the opposite direction", func() {
			It("should reject it as a duplicate", func() {
				// ARRANGE
				f.mustCreate("A", "B", entities.RelationshipRelated, "")

				// ACT
				_, err := f.create("B", "A", entities.RelationshipRelated, "")

				// ASSERT
				Expect(err).To(HaveViolatedRule(domain.RuleDuplicateRelated))
				Expect(f.store.Len()).To(Equal(1))
			})
		})

		When("the same pair is linked again in the same direction", func() {
			It("should reject it as a duplicate", func() {
				f.mustCreate("A", "B", entities.RelationshipRelated, "")

				_, err := f.create("A", "B", entities.RelationshipRelated, "")

				Expect(err).To(HaveViolatedRule(domain.RuleDuplicateRelated))
			})
		})

		When("an alias is sent", func() {
			It("should reject the alias", func() {
				_, err := f.create("A", "B", entities.RelationshipRelated, "x")

				Expect(err).To(HaveViolatedRule(domain.RuleAliasNotAllowed))
				Expect(f.store.Len()).To(BeZero())
			})
		})

		It("should coexist with a parent-child link between the same assets", func() {
			f.mustCreate("A", "B", entities.RelationshipParentChild, "")

			_, err := f.create("A", "B", entities.RelationshipRelated, "")

			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("parent-child links", func() {
		It("should allow different aliases between the same ordered pair", func() {
			f.mustCreate("A", "B", entities.RelationshipParentChild, "X")

			_, err := f.create("A", "B", entities.RelationshipParentChild, "Y")

			Expect(err).NotTo(HaveOccurred())
			Expect(f.store.Len()).To(Equal(2))
		})

		DescribeTable("should reject the same (from, to, alias) twice",
			func(aliasID string) {
				f.mustCreate("A", "B", entities.RelationshipParentChild, aliasID)

				_, err := f.create("A", "B", entities.RelationshipParentChild, aliasID)

				Expect(err).To(HaveViolatedRule(domain.RuleDuplicateAlias))
				Expect(f.store.Len()).To(Equal(1))
			},
			Entry("with an alias", "X"),
			Entry("without an alias", ""),
		)

		It("should treat a blank alias as no alias", func() {
			f.mustCreate("A", "B", entities.RelationshipParentChild, "")

			_, err := f.create("A", "B", entities.RelationshipParentChild, "   ")

			Expect(err).To(HaveViolatedRule(domain.RuleDuplicateAlias))
		})

		DescribeTable("should reject the reverse direction as a cycle regardless of alias",
			func(existingAlias, newAlias string) {
				f.mustCreate("A", "B", entities.RelationshipParentChild, existingAlias)

				_, err := f.create("B", "A", entities.RelationshipParentChild, newAlias)

				Expect(err).To(HaveViolatedRule(domain.RuleCycle))
				Expect(f.store.Len()).To(Equal(1))
			},
			Entry("same alias", "X", "X"),
			Entry("different alias", "X", "Y"),
			Entry("no alias on either", "", ""),
		)

		It("should reject a link that closes a cycle and accept one that extends the chain", func() {
			f.mustCreate("A", "B", entities.RelationshipParentChild, "")
			f.mustCreate("B", "C", entities.RelationshipParentChild, "")
			f.mustCreate("C", "D", entities.RelationshipParentChild, "")

			_, err := f.create("D", "A", entities.RelationshipParentChild, "")
			Expect(err).To(HaveViolatedRule(domain.RuleCycle))

			_, err = f.create("D", "E", entities.RelationshipParentChild, "")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should detect the cycle through any alias", func() {
			f.mustCreate("A", "B", entities.RelationshipParentChild, "X")
			f.mustCreate("B", "C", entities.RelationshipParentChild, "Y")

			_, err := f.create("C", "A", entities.RelationshipParentChild, "Z")

			Expect(err).To(HaveViolatedRule(domain.RuleCycle))
		})

		It("should accept a shared child and reject the link back to the root", func() {
			f.mustCreate("root", "child1", entities.RelationshipParentChild, "")
			f.mustCreate("root", "child2", entities.RelationshipParentChild, "")

			_, err := f.create("child1", "child2", entities.RelationshipParentChild, "")
			Expect(err).NotTo(HaveOccurred())

			_, err = f.create("child2", "root", entities.RelationshipParentChild, "")
			Expect(err).To(HaveViolatedRule(domain.RuleCycle))
			Expect(f.store.Len()).To(Equal(3))
		})

		When("the cycle search cannot expand a node", func() {
			It("should fail closed and write nothing", func() {
				f.mustCreate("A", "B", entities.RelationshipParentChild, "")
				f.store.QueryByFromErrs[key("B")] = errors.New("connection reset")

				_, err := f.create("C", "A", entities.RelationshipParentChild, "")

				Expect(err).To(HaveViolatedRule(domain.RuleCycle))
				Expect(f.store.Len()).To(Equal(1))
			})
		})

		When("the cycle search exceeds the visit budget", func() {
			It("should fail closed", func() {
				config := links.DefaultConfig()
				config.MaxCycleCheckVisits = 2
				f = newFixture(config, "A", "B", "C", "D", "E", "F")

				f.mustCreate("A", "B", entities.RelationshipParentChild, "")
				f.mustCreate("B", "C", entities.RelationshipParentChild, "")
				f.mustCreate("C", "D", entities.RelationshipParentChild, "")
				f.mustCreate("D", "E", entities.RelationshipParentChild, "")

				_, err := f.create("F", "A", entities.RelationshipParentChild, "")

				Expect(err).To(HaveViolatedRule(domain.RuleCycle))
				Expect(errors.Unwrap(err)).To(HaveOccurred())
			})
		})
	})

	Context("input and endpoint checks", func() {
		It("should reject a self link before touching the catalog", func() {
			_, err := f.create("A", "A", entities.RelationshipParentChild, "")

			Expect(err).To(HaveViolatedRule(domain.RuleSelfLink))
			resolveCalls, _ := f.catalog.Stats()
			Expect(resolveCalls).To(BeZero())
		})

		It("should reject identifiers containing the key separator", func() {
			f.catalog.Add(stubs.NewAssetNodeStub().WithDatabaseID(testDatabase).WithAssetID("A:B").Get())

			_, err := f.service.Create(f.ctx, caller, links.CreateLinkRequest{
				From:             key("A:B"),
				To:               key("C"),
				RelationshipType: entities.RelationshipParentChild,
			})

			Expect(err).To(HaveViolatedRule(domain.RuleInvalidAssetKey))
			Expect(f.store.Len()).To(BeZero())
		})

		It("should reject an unknown relationship type", func() {
			_, err := f.create("A", "B", entities.RelationshipType("sibling"), "")

			Expect(err).To(HaveViolatedRule(domain.RuleInvalidRelationshipType))
		})

		It("should reject a missing endpoint", func() {
			_, err := f.create("A", "ghost", entities.RelationshipParentChild, "")

			Expect(err).To(HaveViolatedRule(domain.RuleAssetNotFound))
			Expect(f.store.Len()).To(BeZero())
		})

		It("should surface catalog outages as storage errors", func() {
			f.catalog.ResolveErr = errors.New("catalog down")

			_, err := f.create("A", "B", entities.RelationshipParentChild, "")

			Expect(err).To(MatchError(domain.ErrStorage))
		})

		It("should reject blank tags and dedupe the rest", func() {
			_, err := f.service.Create(f.ctx, caller, links.CreateLinkRequest{
				From: key("A"), To: key("B"), RelationshipType: entities.RelationshipRelated, Tags: []string{"a", " "},
			})
			Expect(err).To(HaveViolatedRule(domain.RuleInvalidTags))

			linkID, err := f.service.Create(f.ctx, caller, links.CreateLinkRequest{
				From: key("A"), To: key("B"), RelationshipType: entities.RelationshipRelated, Tags: []string{"b", "a", "b"},
			})
			Expect(err).NotTo(HaveOccurred())

			link, err := f.service.Get(f.ctx, caller, linkID)
			Expect(err).NotTo(HaveOccurred())
			Expect(link.Tags).To(Equal([]string{"b", "a"}))
		})
	})

	Context("authorization", func() {
		It("should refuse an anonymous caller without looking anything up", func() {
			_, err := f.service.Create(f.ctx, domain.Caller{}, links.CreateLinkRequest{
				From: key("A"), To: key("B"), RelationshipType: entities.RelationshipParentChild,
			})

			Expect(err).To(MatchError(domain.ErrNotAuthorized))
			resolveCalls, _ := f.catalog.Stats()
			Expect(resolveCalls).To(BeZero())
		})

		It("should require create permission on both endpoints", func() {
			f.authorizer.Deny(key("B"))

			_, err := f.create("A", "B", entities.RelationshipParentChild, "")

			var permissionErr *domain.PermissionError
			Expect(errors.As(err, &permissionErr)).To(BeTrue())
			Expect(permissionErr.Action).To(Equal(domain.ActionCreate))
			Expect(f.store.Len()).To(BeZero())
		})
	})

	Context("conditional write", func() {
		It("should reject the loser of a race that validation could not see", func() {
			service := links.NewLinkService(slog.New(slog.DiscardHandler), racingStore{f.store}, f.catalog, f.authorizer, f.metadata, f.publisher, links.DefaultConfig())
			f.mustCreate("A", "B", entities.RelationshipParentChild, "X")

			_, err := service.Create(f.ctx, caller, links.CreateLinkRequest{
				From: key("A"), To: key("B"), RelationshipType: entities.RelationshipParentChild, AliasID: "X",
			})

			Expect(err).To(HaveViolatedRule(domain.RuleDuplicateAlias))
			Expect(errors.Is(err, domain.ErrLinkConflict)).To(BeTrue())
			Expect(f.store.Len()).To(Equal(1))
		})
	})

	Context("events", func() {
		It("should publish a created event with the actor", func() {
			linkID := f.mustCreate("A", "B", entities.RelationshipParentChild, "X")

			events := f.publisher.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventType).To(Equal(domain.EventLinkCreated))
			Expect(events[0].ActorID).To(Equal(caller.UserID))
			Expect(events[0].Link.ID).To(Equal(linkID))
			Expect(events[0].Link.AliasID).To(Equal("X"))
		})

		It("should not fail the write when publishing fails", func() {
			f.publisher.Err = errors.New("broker down")

			_, err := f.create("A", "B", entities.RelationshipParentChild, "")

			Expect(err).NotTo(HaveOccurred())
			Expect(f.store.Len()).To(Equal(1))
		})
	})
})
