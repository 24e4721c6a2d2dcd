package links_test

import (
	"errors"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
	"assetgraph/src/services/links"
	"assetgraph/src/test_artefacts/comparer"
	"assetgraph/src/test_artefacts/stubs"
)

func treeAssetIDs(nodes []*domain.AssetTreeNode) []string {
	ids := make([]string, len(nodes))
	for i, node := range nodes {
		ids[i] = node.AssetID
	}
	return ids
}

var _ = Describe("ListForAsset", func() {
	var f *fixture

	Context("flat view", func() {
		BeforeEach(func() {
			f = newFixture(links.DefaultConfig(), "A", "B", "C", "D", "E", "F", "P")
		})

		It("should partition neighbours and count hidden ones per category", func() {
			// ARRANGE
			f.mustCreate("A", "B", entities.RelationshipRelated, "")
			f.mustCreate("C", "A", entities.RelationshipRelated, "")
			f.mustCreate("P", "A", entities.RelationshipParentChild, "")
			f.mustCreate("A", "D", entities.RelationshipParentChild, "")
			f.mustCreate("A", "E", entities.RelationshipParentChild, "")
			f.mustCreate("A", "F", entities.RelationshipParentChild, "")
			f.authorizer.Deny(key("C"), key("F"))

			// ACT
			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), false)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(assetIDs(result.Related)).To(Equal([]string{"B"}))
			Expect(assetIDs(result.Parents)).To(Equal([]string{"P"}))
			Expect(assetIDs(result.Children)).To(Equal([]string{"D", "E"}))
			Expect(result.ChildTree).To(BeNil())
			Expect(result.UnauthorizedCounts).To(Equal(domain.UnauthorizedCounts{Related: 1, Parents: 0, Children: 1}))
		})

		It("should carry link id, name and alias of each neighbour", func() {
			linkID := f.mustCreate("A", "B", entities.RelationshipParentChild, "X")

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), false)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Children).To(Equal([]domain.LinkedAsset{{
				LinkID:     linkID,
				AssetID:    "B",
				AssetName:  "asset B",
				DatabaseID: testDatabase,
				AliasID:    "X",
			}}))
		})

		It("should list one entry per alias of the same child", func() {
			viaX := f.mustCreate("A", "B", entities.RelationshipParentChild, "X")
			viaY := f.mustCreate("A", "B", entities.RelationshipParentChild, "Y")
			toC := f.mustCreate("A", "C", entities.RelationshipParentChild, "")

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), false)

			Expect(err).NotTo(HaveOccurred())
			expected := []domain.LinkedAsset{
				{LinkID: toC, AssetID: "C", AssetName: "asset C", DatabaseID: testDatabase},
				{LinkID: viaY, AssetID: "B", AssetName: "asset B", DatabaseID: testDatabase, AliasID: "Y"},
				{LinkID: viaX, AssetID: "B", AssetName: "asset B", DatabaseID: testDatabase, AliasID: "X"},
			}
			Expect(cmp.Diff(expected, result.Children, comparer.LinkedAssetsByAsset())).To(BeEmpty())
		})

		It("should return empty lists for an isolated asset", func() {
			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), false)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Related).To(BeEmpty())
			Expect(result.Parents).To(BeEmpty())
			Expect(result.Children).NotTo(BeNil())
			Expect(result.Children).To(BeEmpty())
		})

		It("should ask the authorizer once per node", func() {
			f.mustCreate("A", "B", entities.RelationshipRelated, "")
			f.mustCreate("A", "B", entities.RelationshipParentChild, "X")
			f.mustCreate("A", "B", entities.RelationshipParentChild, "Y")
			callsBefore := f.authorizer.Calls(key("B"))

			_, err := f.service.ListForAsset(f.ctx, caller, key("A"), true)

			Expect(err).NotTo(HaveOccurred())
			Expect(f.authorizer.Calls(key("B")) - callsBefore).To(Equal(1))
		})

		It("should return not found for an unknown asset", func() {
			_, err := f.service.ListForAsset(f.ctx, caller, key("ghost"), false)

			Expect(err).To(MatchError(domain.ErrAssetNotFound))
		})

		It("should reject an ambiguous key before touching the catalog", func() {
			_, err := f.service.ListForAsset(f.ctx, caller, entities.AssetKey{DatabaseID: "db1:A", AssetID: "B"}, false)

			Expect(err).To(HaveViolatedRule(domain.RuleInvalidAssetKey))
			resolveCalls, _ := f.catalog.Stats()
			Expect(resolveCalls).To(BeZero())
		})

		It("should refuse when the asset itself is not readable", func() {
			f.authorizer.Deny(key("A"))

			_, err := f.service.ListForAsset(f.ctx, caller, key("A"), false)

			Expect(err).To(MatchError(domain.ErrNotAuthorized))
		})

		It("should fail with an integrity error on a dangling link", func() {
			f.mustCreate("A", "B", entities.RelationshipParentChild, "")
			f.catalog.Remove(key("B"))

			_, err := f.service.ListForAsset(f.ctx, caller, key("A"), false)

			Expect(err).To(MatchError(domain.ErrIntegrity))
		})

		It("should surface store failures as storage errors", func() {
			f.store.Err = errors.New("connection reset")

			_, err := f.service.ListForAsset(f.ctx, caller, key("A"), false)

			Expect(err).To(MatchError(domain.ErrStorage))
		})
	})

	Context("batched resolution", func() {
		BeforeEach(func() {
			config := links.DefaultConfig()
			config.ResolveBatchSize = 2
			f = newFixture(config, "A", "B", "C", "D", "E", "F")

			for _, child := range []string{"B", "C", "D", "E", "F"} {
				f.mustCreate("A", child, entities.RelationshipParentChild, "")
			}
		})

		It("should never send more than the batch size per lookup", func() {
			_, batchesBefore := f.catalog.Stats()

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), false)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Children).To(HaveLen(5))
			_, batches := f.catalog.Stats()
			newBatches := batches[len(batchesBefore):]
			Expect(newBatches).To(HaveLen(3))
			for _, size := range newBatches {
				Expect(size).To(BeNumerically("<=", 2))
			}
		})

		It("should fall back to single lookups when a batch fails", func() {
			f.catalog.BatchErr = errors.New("batch endpoint throttled")
			resolveBefore, _ := f.catalog.Stats()

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), false)

			Expect(err).NotTo(HaveOccurred())
			Expect(assetIDs(result.Children)).To(Equal([]string{"B", "C", "D", "E", "F"}))
			resolveAfter, _ := f.catalog.Stats()
			// 1 para o próprio asset + 5 pontas
			Expect(resolveAfter - resolveBefore).To(Equal(6))
		})
	})

	Context("tree view", func() {
		BeforeEach(func() {
			f = newFixture(links.DefaultConfig(), "A", "B", "C", "D", "E")
		})

		It("should repeat a shared descendant under every branch of a diamond", func() {
			f.mustCreate("A", "B", entities.RelationshipParentChild, "")
			f.mustCreate("A", "C", entities.RelationshipParentChild, "")
			f.mustCreate("B", "D", entities.RelationshipParentChild, "")
			f.mustCreate("C", "D", entities.RelationshipParentChild, "")

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), true)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Children).To(BeNil())
			Expect(treeAssetIDs(result.ChildTree)).To(Equal([]string{"B", "C"}))
			Expect(treeAssetIDs(result.ChildTree[0].Children)).To(Equal([]string{"D"}))
			Expect(treeAssetIDs(result.ChildTree[1].Children)).To(Equal([]string{"D"}))
			Expect(result.ChildTree[0].Children[0].Children).To(BeEmpty())
			Expect(result.TreeTruncated).To(BeFalse())
		})

		It("should render every alias as its own branch", func() {
			f.mustCreate("A", "B", entities.RelationshipParentChild, "Y")
			f.mustCreate("A", "B", entities.RelationshipParentChild, "X")

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), true)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.ChildTree).To(HaveLen(2))
			Expect(result.ChildTree[0].AliasID).To(Equal("X"))
			Expect(result.ChildTree[1].AliasID).To(Equal("Y"))
		})

		It("should hide unreadable children and count them", func() {
			f.mustCreate("A", "B", entities.RelationshipParentChild, "")
			f.mustCreate("A", "C", entities.RelationshipParentChild, "")
			f.mustCreate("C", "D", entities.RelationshipParentChild, "")
			f.mustCreate("B", "E", entities.RelationshipParentChild, "")
			f.authorizer.Deny(key("C"), key("E"))

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), true)

			Expect(err).NotTo(HaveOccurred())
			Expect(treeAssetIDs(result.ChildTree)).To(Equal([]string{"B"}))
			Expect(result.ChildTree[0].Children).To(BeEmpty())
			Expect(result.UnauthorizedCounts.Children).To(Equal(2))
		})

		It("should not loop on a corrupted cycle", func() {
			f.store.Seed(
				stubs.NewAssetLinkStub().WithID("ab").From(key("A")).To(key("B")).Get(),
				stubs.NewAssetLinkStub().WithID("bc").From(key("B")).To(key("C")).Get(),
				stubs.NewAssetLinkStub().WithID("ca").From(key("C")).To(key("A")).Get(),
			)

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), true)

			Expect(err).NotTo(HaveOccurred())
			Expect(treeAssetIDs(result.ChildTree)).To(Equal([]string{"B"}))
			Expect(treeAssetIDs(result.ChildTree[0].Children)).To(Equal([]string{"C"}))
			Expect(result.ChildTree[0].Children[0].Children).To(BeEmpty())
		})

		It("should fail with an integrity error when a descendant vanished", func() {
			f.mustCreate("A", "B", entities.RelationshipParentChild, "")
			f.mustCreate("B", "C", entities.RelationshipParentChild, "")
			f.catalog.Remove(key("C"))

			_, err := f.service.ListForAsset(f.ctx, caller, key("A"), true)

			Expect(err).To(MatchError(domain.ErrIntegrity))
		})

		It("should mark nodes cut by the depth limit", func() {
			config := links.DefaultConfig()
			config.MaxTreeDepth = 2
			f = newFixture(config, "A", "B", "C", "D")
			f.mustCreate("A", "B", entities.RelationshipParentChild, "")
			f.mustCreate("B", "C", entities.RelationshipParentChild, "")
			f.mustCreate("C", "D", entities.RelationshipParentChild, "")

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), true)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.TreeTruncated).To(BeTrue())
			b := result.ChildTree[0]
			Expect(b.Truncated).To(BeFalse())
			c := b.Children[0]
			Expect(c.AssetID).To(Equal("C"))
			Expect(c.Truncated).To(BeTrue())
			Expect(c.Children).To(BeEmpty())
		})

		It("should stop at the node limit and flag the response", func() {
			config := links.DefaultConfig()
			config.MaxTreeNodes = 2
			f = newFixture(config, "A", "B", "C", "D")
			f.mustCreate("A", "B", entities.RelationshipParentChild, "")
			f.mustCreate("A", "C", entities.RelationshipParentChild, "")
			f.mustCreate("A", "D", entities.RelationshipParentChild, "")

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), true)

			Expect(err).NotTo(HaveOccurred())
			Expect(treeAssetIDs(result.ChildTree)).To(Equal([]string{"B", "C"}))
			Expect(result.TreeTruncated).To(BeTrue())
		})

		It("should not truncate a leaf sitting exactly at the depth limit", func() {
			config := links.DefaultConfig()
			config.MaxTreeDepth = 1
			f = newFixture(config, "A", "B")
			f.mustCreate("A", "B", entities.RelationshipParentChild, "")

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), true)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.ChildTree[0].Truncated).To(BeFalse())
			Expect(result.TreeTruncated).To(BeFalse())
		})

		It("should not truncate at the depth limit when the only children are hidden", func() {
			config := links.DefaultConfig()
			config.MaxTreeDepth = 1
			f = newFixture(config, "A", "B", "C")
			f.mustCreate("A", "B", entities.RelationshipParentChild, "")
			f.mustCreate("B", "C", entities.RelationshipParentChild, "")
			f.authorizer.Deny(key("C"))

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), true)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.ChildTree[0].Truncated).To(BeFalse())
			Expect(result.TreeTruncated).To(BeFalse())
			// o nível abaixo do corte não é percorrido
			Expect(result.UnauthorizedCounts.Children).To(BeZero())
		})

		It("should not truncate at the depth limit when the only child is an ancestor", func() {
			config := links.DefaultConfig()
			config.MaxTreeDepth = 2
			f = newFixture(config, "A", "B", "C")
			f.mustCreate("A", "B", entities.RelationshipParentChild, "")
			f.mustCreate("B", "C", entities.RelationshipParentChild, "")
			f.store.Seed(stubs.NewAssetLinkStub().WithID("corrupted").From(key("C")).To(key("B")).Get())

			result, err := f.service.ListForAsset(f.ctx, caller, key("A"), true)

			Expect(err).NotTo(HaveOccurred())
			c := result.ChildTree[0].Children[0]
			Expect(c.AssetID).To(Equal("C"))
			Expect(c.Truncated).To(BeFalse())
			Expect(result.TreeTruncated).To(BeFalse())
		})
	})
})
