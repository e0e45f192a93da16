package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create runs table
			CREATE TABLE runs (
				id VARCHAR(255) PRIMARY KEY,
				job_name VARCHAR(255) NOT NULL,
				build_number INT NOT NULL,
				build_result VARCHAR(50) NOT NULL DEFAULT '',
				final_result VARCHAR(50) NOT NULL DEFAULT '',
				succeeded BOOLEAN NOT NULL,
				error TEXT NOT NULL DEFAULT '',
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_runs_job_name ON runs(job_name);
			CREATE INDEX idx_runs_started_at ON runs(started_at);
			CREATE INDEX idx_runs_finished_at ON runs(finished_at);
		`,
	}
}
