package repositories_test

import (
	"context"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
	"assetgraph/src/infra/postgres"
	"assetgraph/src/repositories"
	"assetgraph/src/test_artefacts/comparer"
	"assetgraph/src/test_artefacts/stubs"
	"assetgraph/src/test_artefacts/test_seeder"
)

var _ = Describe("Postgres repositories", func() {
	var (
		ctx             context.Context
		readWriteClient *postgres.ReadWriteClient
		testSeeder      test_seeder.TestSeeder
		root            entities.AssetNode
		child           entities.AssetNode
	)

	BeforeEach(func() {
		ctx = context.Background()
		readWriteClient = newTestReadWriteClient()
		DeferCleanup(readWriteClient.Close)

		testSeeder = test_seeder.New(readWriteClient.GetWritePool())
		testSeeder.TruncateTables(ctx)

		root = stubs.NewAssetNodeStub().WithDatabaseID("db1").WithAssetID("root").WithTags("site").Get()
		child = stubs.NewAssetNodeStub().WithDatabaseID("db1").WithAssetID("child").Get()
		testSeeder.InsertAsset(ctx, root)
		testSeeder.InsertAsset(ctx, child)
	})

	Describe("AssetLinkRepository", func() {
		var repository *repositories.AssetLinkRepository

		BeforeEach(func() {
			repository = repositories.NewAssetLinkRepository(readWriteClient.GetWritePool())
		})

		It("should store and read back a link without alias as NULL", func() {
			link := stubs.NewAssetLinkStub().From(root.Key()).To(child.Key()).WithTags("wiring").Get()

			Expect(repository.Put(ctx, link)).To(Succeed())

			stored, err := repository.Get(ctx, link.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmp.Diff(link, stored, comparer.TimeWithinTolerance(1))).To(BeEmpty())

			key, err := testSeeder.SelectUniquenessKey(ctx, link.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal(link.UniquenessKey()))
		})

		It("should reject a second link with the same canonical key", func() {
			first := stubs.NewAssetLinkStub().From(root.Key()).To(child.Key()).WithAlias("x").Get()
			second := stubs.NewAssetLinkStub().From(root.Key()).To(child.Key()).WithAlias("x").Get()
			otherAlias := stubs.NewAssetLinkStub().From(root.Key()).To(child.Key()).WithAlias("y").Get()

			Expect(repository.Put(ctx, first)).To(Succeed())
			Expect(repository.Put(ctx, second)).To(MatchError(domain.ErrLinkConflict))
			Expect(repository.Put(ctx, otherAlias)).To(Succeed())
			Expect(testSeeder.CountLinks(ctx)).To(Equal(2))
		})

		It("should treat related links as undirected", func() {
			forward := stubs.NewAssetLinkStub().From(root.Key()).To(child.Key()).Related().Get()
			backward := stubs.NewAssetLinkStub().From(child.Key()).To(root.Key()).Related().Get()

			Expect(repository.Put(ctx, forward)).To(Succeed())
			Expect(repository.Put(ctx, backward)).To(MatchError(domain.ErrLinkConflict))
		})

		It("should query by each endpoint and by pair", func() {
			parentChild := stubs.NewAssetLinkStub().From(root.Key()).To(child.Key()).Get()
			related := stubs.NewAssetLinkStub().From(child.Key()).To(root.Key()).Related().Get()
			Expect(repository.Put(ctx, parentChild)).To(Succeed())
			Expect(repository.Put(ctx, related)).To(Succeed())

			fromRoot, err := repository.QueryByFrom(ctx, root.Key())
			Expect(err).NotTo(HaveOccurred())
			Expect(fromRoot).To(HaveLen(1))
			Expect(fromRoot[0].ID).To(Equal(parentChild.ID))

			toRoot, err := repository.QueryByTo(ctx, root.Key())
			Expect(err).NotTo(HaveOccurred())
			Expect(toRoot).To(HaveLen(1))
			Expect(toRoot[0].ID).To(Equal(related.ID))

			pair, err := repository.QueryByFromAndTo(ctx, root.Key(), child.Key(), entities.RelationshipParentChild)
			Expect(err).NotTo(HaveOccurred())
			Expect(pair).To(HaveLen(1))

			none, err := repository.QueryByFromAndTo(ctx, root.Key(), child.Key(), entities.RelationshipRelated)
			Expect(err).NotTo(HaveOccurred())
			Expect(none).To(BeEmpty())
		})

		It("should keep the stored link identical apart from timestamps after an update", func() {
			link := stubs.NewAssetLinkStub().From(root.Key()).To(child.Key()).WithTags("a").Get()
			Expect(repository.Put(ctx, link)).To(Succeed())

			link.Tags = []string{"b"}
			Expect(repository.Update(ctx, link)).To(Succeed())

			stored, err := repository.Get(ctx, link.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmp.Diff(link, stored, comparer.AssetLinkIgnoringTimestamps())).To(BeEmpty())
		})

		It("should update the alias and move the canonical key", func() {
			link := stubs.NewAssetLinkStub().From(root.Key()).To(child.Key()).Get()
			Expect(repository.Put(ctx, link)).To(Succeed())

			link.AliasID = "x"
			link.Tags = []string{"updated"}
			Expect(repository.Update(ctx, link)).To(Succeed())

			stored, err := repository.Get(ctx, link.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.AliasID).To(Equal("x"))
			Expect(stored.Tags).To(Equal([]string{"updated"}))

			key, err := testSeeder.SelectUniquenessKey(ctx, link.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal(link.UniquenessKey()))
		})

		It("should report conflicts on update", func() {
			withAlias := stubs.NewAssetLinkStub().From(root.Key()).To(child.Key()).WithAlias("x").Get()
			withoutAlias := stubs.NewAssetLinkStub().From(root.Key()).To(child.Key()).Get()
			Expect(repository.Put(ctx, withAlias)).To(Succeed())
			Expect(repository.Put(ctx, withoutAlias)).To(Succeed())

			withoutAlias.AliasID = "x"
			Expect(repository.Update(ctx, withoutAlias)).To(MatchError(domain.ErrLinkConflict))
		})

		It("should report missing links", func() {
			_, err := repository.Get(ctx, "missing")
			Expect(err).To(MatchError(domain.ErrLinkNotFound))

			Expect(repository.Delete(ctx, "missing")).To(MatchError(domain.ErrLinkNotFound))
			Expect(repository.Update(ctx, stubs.NewAssetLinkStub().Get())).To(MatchError(domain.ErrLinkNotFound))
		})

		It("should delete a link", func() {
			link := stubs.NewAssetLinkStub().From(root.Key()).To(child.Key()).Get()
			Expect(repository.Put(ctx, link)).To(Succeed())

			Expect(repository.Delete(ctx, link.ID)).To(Succeed())
			Expect(testSeeder.CountLinks(ctx)).To(Equal(0))
		})
	})

	Describe("AssetCatalogRepository", func() {
		It("should resolve single and batched keys", func() {
			repository := repositories.NewAssetCatalogRepository(readWriteClient.GetReadPool())

			node, err := repository.Resolve(ctx, root.Key())
			Expect(err).NotTo(HaveOccurred())
			Expect(cmp.Diff(root, node)).To(BeEmpty())

			_, err = repository.Resolve(ctx, entities.AssetKey{DatabaseID: "db1", AssetID: "ghost"})
			Expect(err).To(MatchError(domain.ErrAssetNotFound))

			nodes, err := repository.ResolveBatch(ctx, []entities.AssetKey{
				root.Key(),
				child.Key(),
				{DatabaseID: "db1", AssetID: "ghost"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(HaveLen(2))
			Expect(nodes).To(HaveKey(child.Key()))
		})
	})

	Describe("LinkMetadataRepository", func() {
		It("should delete every metadata row of a link", func() {
			repository := repositories.NewLinkMetadataRepository(readWriteClient.GetWritePool())
			testSeeder.InsertMetadata(ctx, entities.AssetLinkMetadata{LinkID: "link-1", Key: "length", Value: "12.5", ValueType: entities.MetadataNumber})
			testSeeder.InsertMetadata(ctx, entities.AssetLinkMetadata{LinkID: "link-1", Key: "color", Value: "red", ValueType: entities.MetadataString})
			testSeeder.InsertMetadata(ctx, entities.AssetLinkMetadata{LinkID: "link-2", Key: "color", Value: "blue", ValueType: entities.MetadataString})

			metadata := testSeeder.SelectMetadata(ctx, "link-1")
			Expect(metadata).To(HaveLen(2))
			Expect(metadata[0].Key).To(Equal("color"))

			Expect(repository.DeleteAll(ctx, "link-1")).To(Succeed())
			Expect(testSeeder.CountMetadata(ctx, "link-1")).To(Equal(0))
			Expect(testSeeder.CountMetadata(ctx, "link-2")).To(Equal(1))
		})
	})

	Describe("PermissionRepository", func() {
		It("should load the grants of the given roles only", func() {
			repository := repositories.NewPermissionRepository(readWriteClient.GetReadPool())
			testSeeder.InsertGrant(ctx, "editor", domain.Grant{DatabaseID: "db1", Actions: []domain.Action{domain.ActionRead, domain.ActionCreate}})
			testSeeder.InsertGrant(ctx, "viewer", domain.Grant{DatabaseID: "*", Tags: []string{"public"}, Actions: []domain.Action{domain.ActionRead}})
			testSeeder.InsertGrant(ctx, "admin", domain.Grant{DatabaseID: "*", Actions: []domain.Action{domain.ActionDelete}})

			grants, err := repository.GrantsForRoles(ctx, []string{"editor", "viewer"})
			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(ConsistOf(
				domain.Grant{DatabaseID: "db1", Tags: []string{}, Actions: []domain.Action{domain.ActionRead, domain.ActionCreate}},
				domain.Grant{DatabaseID: "*", Tags: []string{"public"}, Actions: []domain.Action{domain.ActionRead}},
			))

			none, err := repository.GrantsForRoles(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(none).To(BeEmpty())
		})
	})
})
