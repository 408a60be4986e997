//go:build e2e

package e2e

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/determined-ai/pedl-deploy/internal/config"
	"github.com/determined-ai/pedl-deploy/internal/deployment"
)

var _ = Describe("Release images", func() {
	It("resolves matching master and agent AMIs", func(ctx SpecContext) {
		images, err := instances.LatestReleaseImages(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(images.MasterAMI).To(HavePrefix("ami-"))
		Expect(images.AgentAMI).To(HavePrefix("ami-"))
		Expect(images.Version).NotTo(BeEmpty())
	}, NodeTimeout(time.Minute))

	It("finds the test key pair", func(ctx SpecContext) {
		Expect(instances.CheckKeyPair(ctx, keypair)).To(Succeed())
	}, NodeTimeout(time.Minute))
})

var _ = Describe("Deployment lifecycle", Ordered, func() {
	for _, typ := range deployment.Types() {
		Context(fmt.Sprintf("%s deployment", typ), Ordered, func() {
			var params deployment.Params
			var dep deployment.Deployment

			BeforeAll(func(ctx SpecContext) {
				images, err := instances.LatestReleaseImages(ctx)
				Expect(err).NotTo(HaveOccurred())

				dep, err = deployment.New(typ)
				Expect(err).NotTo(HaveOccurred())

				params = deployment.Params{
					User:               user,
					StackName:          stackName(string(typ)),
					NetworkStackName:   stackName(string(typ) + "-vpc"),
					EnvironmentName:    config.DefaultEnvironmentName,
					Keypair:            keypair,
					MasterAMI:          images.MasterAMI,
					AgentAMI:           images.AgentAMI,
					BastionAMI:         config.DefaultBastionAMI,
					MasterInstanceType: config.DefaultMasterInstanceType,
					AgentInstanceType:  config.DefaultAgentInstanceType,
				}

				DeferCleanup(func(ctx SpecContext) {
					d := deployment.NewDeployer(stacks, instances, buckets, log)
					Expect(d.Delete(ctx, params.StackName, params.NetworkStackName)).To(Succeed())
				}, NodeTimeout(60*time.Minute))
			}, NodeTimeout(time.Minute))

			It("creates the stacks and prints instructions", func(ctx SpecContext) {
				d := deployment.NewDeployer(stacks, instances, buckets, log)
				res, err := d.Deploy(ctx, dep, params)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Outputs).To(HaveKey(config.OutputMasterID))
				Expect(res.Outputs).To(HaveKey(config.OutputCheckpointBucket))
				Expect(res.Instructions.String()).To(ContainSubstring("View the PEDL UI"))
			}, NodeTimeout(60*time.Minute))

			It("reports no changes on a second deploy", func(ctx SpecContext) {
				d := deployment.NewDeployer(stacks, instances, buckets, log)
				res, err := d.Deploy(ctx, dep, params)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Action).To(BeEquivalentTo("unchanged"))
			}, NodeTimeout(10*time.Minute))

			It("deletes everything", func(ctx SpecContext) {
				d := deployment.NewDeployer(stacks, instances, buckets, log)
				Expect(d.Delete(ctx, params.StackName, params.NetworkStackName)).To(Succeed())

				Eventually(func(ctx SpecContext) (bool, error) {
					return stacks.StackExists(ctx, params.StackName)
				}).WithContext(ctx).WithTimeout(time.Minute).Should(BeFalse())
			}, NodeTimeout(60*time.Minute))
		})
	}
})
