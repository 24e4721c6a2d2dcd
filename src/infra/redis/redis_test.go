package redis_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	goredis "github.com/redis/go-redis/v9"

	"assetgraph/src/infra/redis"
)

var _ = Describe("RedisClient", func() {
	var (
		ctx    context.Context
		mr     *miniredis.Miniredis
		client *redis.RedisClient
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())

		client = redis.NewRedisClientWithUniversal(
			goredis.NewClient(&goredis.Options{Addr: mr.Addr()}),
			time.Minute,
		)
	})

	AfterEach(func() {
		Expect(client.Close()).To(Succeed())
		mr.Close()
	})

	It("should report a miss for an unknown key", func() {
		value, found, err := client.GetKey(ctx, "missing")

		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
		Expect(value).To(BeEmpty())
	})

	It("should store a value with the default TTL", func() {
		Expect(client.SetKey(ctx, "asset:node:db1:a", `{"asset_id":"a"}`)).To(Succeed())

		value, found, err := client.GetKey(ctx, "asset:node:db1:a")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(value).To(Equal(`{"asset_id":"a"}`))
		Expect(mr.TTL("asset:node:db1:a")).To(Equal(time.Minute))

		mr.FastForward(2 * time.Minute)

		_, found, err = client.GetKey(ctx, "asset:node:db1:a")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("should return only the keys present when reading many", func() {
		Expect(client.SetKey(ctx, "k1", "v1")).To(Succeed())
		Expect(client.SetKey(ctx, "k3", "v3")).To(Succeed())

		found, err := client.GetMultiple(ctx, []string{"k1", "k2", "k3"})

		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(Equal(map[string]string{"k1": "v1", "k3": "v3"}))
	})

	It("should return an empty map for an empty key list", func() {
		found, err := client.GetMultiple(ctx, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeEmpty())
	})

	It("should register keys and invalidate them through the registry", func() {
		err := client.SetWithRegistry(ctx,
			map[string]string{"k1": "v1", "k2": "v2"},
			map[string][]string{"registry:database:db1": {"k1", "k2"}, "registry:database:empty": {}},
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(mr.Exists("registry:database:empty")).To(BeFalse())

		members, err := client.GetMultipleSetMembers(ctx, []string{"registry:database:db1", "registry:database:db2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(members["registry:database:db1"]).To(ConsistOf("k1", "k2"))
		Expect(members["registry:database:db2"]).To(BeEmpty())

		Expect(client.InvalidateKeys(ctx, append(members["registry:database:db1"], "registry:database:db1"))).To(Succeed())

		found, err := client.GetMultiple(ctx, []string{"k1", "k2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeEmpty())
		Expect(mr.Exists("registry:database:db1")).To(BeFalse())
	})

	It("should answer the health check", func() {
		Expect(client.HealthCheck(ctx)).To(Succeed())
	})

	It("should surface errors when the server is gone", func() {
		mr.Close()

		_, _, err := client.GetKey(ctx, "k1")
		Expect(err).To(HaveOccurred())
	})
})
